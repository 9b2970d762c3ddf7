// Command sender_setup runs the Sender's offline and online setup phase: it
// builds and encrypts the Sender's Cuckoo table, then exchanges evaluation
// keys and the encrypted table with the Receiver over the setup port.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli"

	"github.com/momalab/psi-ndss2025/internal/config"
	"github.com/momalab/psi-ndss2025/internal/crt"
	"github.com/momalab/psi-ndss2025/internal/cuckoo"
	"github.com/momalab/psi-ndss2025/internal/logging"
	"github.com/momalab/psi-ndss2025/internal/netconn"
	"github.com/momalab/psi-ndss2025/internal/psi"
	"github.com/momalab/psi-ndss2025/internal/setfile"
	"github.com/momalab/psi-ndss2025/internal/store"
	"github.com/momalab/psi-ndss2025/internal/wire"
)

var log = logging.MustGetLogger("sender_setup")

func run(c *cli.Context) error {
	if len(c.Args()) != 1 {
		return cli.NewExitError("usage: sender_setup <parameter_file>", 1)
	}
	params, err := config.LoadParams(c.Args().Get(0))
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	passphrase := []byte(os.Getenv("PSI_KEY_PASSPHRASE"))

	log.Notice("offline phase")

	crtParams := crt.NewParams(params.Sender.Ti)

	log.Notice("loading Sender's set")
	senderSet, err := setfile.Load(params.Set.Filenames[0])
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	log.Notice("generating Sender's keys")
	senderCtx, err := psi.NewContext(params.Sender.LogN, params.Sender.LogQi, nil, params.Sender.Ti)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	sender, err := psi.GenerateKeys(senderCtx, false)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	log.Notice("saving Sender's keys")
	if len(passphrase) > 0 {
		if err := store.SaveKeySealedFile(params.Sender.FilenameSK, sender.Secret, passphrase); err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
	} else {
		if err := store.SaveKeyFile(params.Sender.FilenameSK, sender.Secret); err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
	}
	if err := store.SaveKeyFile(params.Sender.FilenameRK, sender.Relin); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	log.Notice("building Cuckoo hash table")
	table := cuckoo.New(params.Table.NumHashes, params.Table.TableSize, params.Table.MaxData, params.Table.MaxDepth, params.Table.NumTables)
	if err := table.InsertSetParallel(senderSet); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	log.Notice("encrypting Cuckoo hash table")
	encryptedTable, err := psi.EncryptTableParallel(table, crtParams, senderCtx, sender, params.Compute.NumThreads)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	log.Notice("saving Cuckoo hash table")
	if err := store.SaveTableFile(params.Table.Filename, table, encryptedTable); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	log.Notice("online phase")
	log.Notice("waiting for Receiver to connect")
	conn, err := netconn.Listen(params.Compute.PortSetup, params.Compute.RcvBufSize, params.Compute.SndBufSize)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	defer conn.Close()

	req, err := wire.ReadSetupRequest(conn)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	log.Noticef("run %s: received Receiver's evaluation keys", req.RunID)

	if err := wire.WriteSetupResponse(conn, wire.SetupResponse{Relin: sender.Relin, Table: table, Cells: encryptedTable}); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	log.Notice("saving Receiver's evaluation keys")
	if err := store.SaveKeyFile(params.Receiver.FilenameRK, req.Relin); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	if err := store.SaveGaloisKeysFile(params.Receiver.FilenameGK, req.Galois); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	color.Green("setup complete")
	return nil
}

func main() {
	app := cli.NewApp()
	app.Name = "sender_setup"
	app.Usage = "run the Sender's setup phase"
	app.Action = run
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
