// Command receiver_intersect runs the Receiver's online query phase: for
// each of its set files it computes the masked zero-indicator circuit
// against the Sender's encrypted Cuckoo table, exchanges a recrypt round
// with the Sender, then decrypts and saves the intersection.
package main

import (
	"fmt"
	"os"

	"github.com/tuneinsight/lattigo/v5/core/rlwe"

	uuid "github.com/satori/go.uuid"

	"github.com/fatih/color"
	"github.com/urfave/cli"

	"github.com/momalab/psi-ndss2025/internal/config"
	"github.com/momalab/psi-ndss2025/internal/crt"
	"github.com/momalab/psi-ndss2025/internal/logging"
	"github.com/momalab/psi-ndss2025/internal/netconn"
	"github.com/momalab/psi-ndss2025/internal/psi"
	"github.com/momalab/psi-ndss2025/internal/setfile"
	"github.com/momalab/psi-ndss2025/internal/store"
	"github.com/momalab/psi-ndss2025/internal/wire"
)

var log = logging.MustGetLogger("receiver_intersect")

func run(c *cli.Context) error {
	if len(c.Args()) != 1 {
		return cli.NewExitError("usage: receiver_intersect <parameter_file>", 1)
	}
	params, err := config.LoadParams(c.Args().Get(0))
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	passphrase := []byte(os.Getenv("PSI_KEY_PASSPHRASE"))

	log.Notice("offline phase")

	crtParams := crt.NewParams(params.Sender.Ti)

	senderCtx, err := psi.NewContext(params.Sender.LogN, params.Sender.LogQi, nil, params.Sender.Ti)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	receiverCtx, err := psi.NewContext(params.Receiver.LogN, params.Receiver.LogQi, nil, params.Receiver.Ti)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	log.Notice("loading Receiver's secret key")
	sk := new(rlwe.SecretKey)
	if len(passphrase) > 0 {
		err = store.LoadKeySealedFile(params.Receiver.FilenameSK, sk, passphrase)
	} else {
		err = store.LoadKeyFile(params.Receiver.FilenameSK, sk)
	}
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	receiver := &psi.Keys{
		Secret:    sk,
		Encryptor: rlwe.NewEncryptor(receiverCtx.Params, sk),
		Decryptor: rlwe.NewDecryptor(receiverCtx.Params, sk),
	}

	log.Notice("loading Sender's evaluation key")
	senderRelin := new(rlwe.RelinearizationKey)
	if err := store.LoadKeyFile(params.Sender.FilenameRK, senderRelin); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	sender := psi.NewPublicKeys(senderCtx, senderRelin, nil)

	log.Notice("loading Sender's encrypted Cuckoo hash table")
	table, encryptedTable, err := store.LoadTableFile(params.Table.Filename)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	log.Notice("online phase")
	log.Notice("connecting to Sender")
	conn, err := netconn.Dial(params.Compute.IP, params.Compute.PortIntersect, params.Compute.RcvBufSize, params.Compute.SndBufSize)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	defer conn.Close()

	if err := wire.WriteUint64(conn, uint64(len(params.Set.Filenames))); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	for i, setFilename := range params.Set.Filenames {
		receiverSet, err := setfile.Load(setFilename)
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}

		runID, err := uuid.NewV4()
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		log.Noticef("run %s: computing query set %d/%d", runID, i+1, len(params.Set.Filenames))

		results, randoms, err := psi.ComputeIntersectionParallel(receiverSet, table, encryptedTable, crtParams, params.Sender.Eta, senderCtx, receiverCtx, sender, receiver, params.Compute.NumThreads)
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}

		if err := wire.WriteIntersectRequest(conn, runID, results, randoms); err != nil {
			return cli.NewExitError(err.Error(), 1)
		}

		finals, err := wire.ReadIntersectResponse(conn)
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}

		intersection, err := psi.DecryptIntersectionParallel(finals, receiverSet, crtParams, receiverCtx, receiver, params.Compute.NumThreads)
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}

		outPath := setFilename + ".intersect"
		if err := setfile.Save(outPath, intersection); err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		log.Noticef("run %s: %d matching entries written to %s", runID, len(intersection), outPath)
	}

	color.Green("intersection complete")
	return nil
}

func main() {
	app := cli.NewApp()
	app.Name = "receiver_intersect"
	app.Usage = "run the Receiver's intersection phase"
	app.Action = run
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
