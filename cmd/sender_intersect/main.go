// Command sender_intersect runs the Sender's online recrypt phase: it loads
// its own secret key and the Receiver's evaluation keys from the setup
// phase, then for every incoming query batch re-keys the Receiver's masked
// results from its own key to the Receiver's and sends the result back.
package main

import (
	"fmt"
	"os"

	"github.com/tuneinsight/lattigo/v5/core/rlwe"

	"github.com/fatih/color"
	"github.com/urfave/cli"

	"github.com/momalab/psi-ndss2025/internal/config"
	"github.com/momalab/psi-ndss2025/internal/crt"
	"github.com/momalab/psi-ndss2025/internal/logging"
	"github.com/momalab/psi-ndss2025/internal/netconn"
	"github.com/momalab/psi-ndss2025/internal/psi"
	"github.com/momalab/psi-ndss2025/internal/store"
	"github.com/momalab/psi-ndss2025/internal/wire"
)

var log = logging.MustGetLogger("sender_intersect")

func run(c *cli.Context) error {
	if len(c.Args()) != 1 {
		return cli.NewExitError("usage: sender_intersect <parameter_file>", 1)
	}
	params, err := config.LoadParams(c.Args().Get(0))
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	passphrase := []byte(os.Getenv("PSI_KEY_PASSPHRASE"))

	log.Notice("offline phase")

	crtParams := crt.NewParams(params.Sender.Ti)

	ctx, err := psi.NewContext(params.Sender.LogN, params.Sender.LogQi, nil, params.Sender.Ti)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	receiverCtx, err := psi.NewContext(params.Receiver.LogN, params.Receiver.LogQi, nil, params.Receiver.Ti)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	log.Notice("loading Sender's secret key")
	sk := new(rlwe.SecretKey)
	if len(passphrase) > 0 {
		err = store.LoadKeySealedFile(params.Sender.FilenameSK, sk, passphrase)
	} else {
		err = store.LoadKeyFile(params.Sender.FilenameSK, sk)
	}
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	sender := &psi.Keys{
		Secret:    sk,
		Encryptor: rlwe.NewEncryptor(ctx.Params, sk),
		Decryptor: rlwe.NewDecryptor(ctx.Params, sk),
	}

	log.Notice("loading Receiver's evaluation keys")
	receiverRelin := new(rlwe.RelinearizationKey)
	if err := store.LoadKeyFile(params.Receiver.FilenameRK, receiverRelin); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	receiverGalois, err := store.LoadGaloisKeysFile(params.Receiver.FilenameGK)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	receiver := psi.NewPublicKeys(receiverCtx, receiverRelin, receiverGalois)

	log.Notice("online phase")
	log.Notice("waiting for Receiver to connect")
	conn, err := netconn.Listen(params.Compute.PortIntersect, params.Compute.RcvBufSize, params.Compute.SndBufSize)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	defer conn.Close()

	numSets, err := wire.ReadUint64(conn)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	for i := uint64(0); i < numSets; i++ {
		runID, results, randoms, err := wire.ReadIntersectRequest(conn)
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		log.Noticef("run %s: recrypting query set %d/%d", runID, i+1, numSets)

		finals, err := psi.RecryptParallel(results, randoms, crtParams, params.Receiver.Eta, ctx, receiverCtx, sender, receiver, params.Compute.NumThreads)
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}

		if err := wire.WriteIntersectResponse(conn, finals); err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
	}

	color.Green("intersection complete")
	return nil
}

func main() {
	app := cli.NewApp()
	app.Name = "sender_intersect"
	app.Usage = "run the Sender's intersection phase"
	app.Action = run
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
