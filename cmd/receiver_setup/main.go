// Command receiver_setup runs the Receiver's offline and online setup
// phase: it generates the Receiver's keys, connects to the Sender, and
// exchanges evaluation keys and the Sender's encrypted Cuckoo table.
package main

import (
	"fmt"
	"os"

	uuid "github.com/satori/go.uuid"

	"github.com/fatih/color"
	"github.com/urfave/cli"

	"github.com/momalab/psi-ndss2025/internal/config"
	"github.com/momalab/psi-ndss2025/internal/logging"
	"github.com/momalab/psi-ndss2025/internal/netconn"
	"github.com/momalab/psi-ndss2025/internal/psi"
	"github.com/momalab/psi-ndss2025/internal/store"
	"github.com/momalab/psi-ndss2025/internal/wire"
)

var log = logging.MustGetLogger("receiver_setup")

func run(c *cli.Context) error {
	if len(c.Args()) != 1 {
		return cli.NewExitError("usage: receiver_setup <parameter_file>", 1)
	}
	params, err := config.LoadParams(c.Args().Get(0))
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	passphrase := []byte(os.Getenv("PSI_KEY_PASSPHRASE"))

	log.Notice("offline phase")

	log.Notice("generating Receiver's keys")
	receiverCtx, err := psi.NewContext(params.Receiver.LogN, params.Receiver.LogQi, nil, params.Receiver.Ti)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	receiver, err := psi.GenerateKeys(receiverCtx, true)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	log.Notice("saving Receiver's keys")
	if len(passphrase) > 0 {
		if err := store.SaveKeySealedFile(params.Receiver.FilenameSK, receiver.Secret, passphrase); err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
	} else {
		if err := store.SaveKeyFile(params.Receiver.FilenameSK, receiver.Secret); err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
	}
	if err := store.SaveKeyFile(params.Receiver.FilenameRK, receiver.Relin); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	if err := store.SaveGaloisKeysFile(params.Receiver.FilenameGK, receiver.Galois); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	log.Notice("online phase")
	log.Notice("connecting to Sender")
	conn, err := netconn.Dial(params.Compute.IP, params.Compute.PortSetup, params.Compute.RcvBufSize, params.Compute.SndBufSize)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	defer conn.Close()

	runID, err := uuid.NewV4()
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	log.Noticef("run %s: sending Receiver's evaluation keys to Sender", runID)
	req := wire.SetupRequest{RunID: runID, Relin: receiver.Relin, Galois: receiver.Galois}
	if err := wire.WriteSetupRequest(conn, req); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	log.Notice("receiving Sender's evaluation keys and Cuckoo hash table")
	resp, err := wire.ReadSetupResponse(conn)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	log.Notice("saving Sender's evaluation keys")
	if err := store.SaveKeyFile(params.Sender.FilenameRK, resp.Relin); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	log.Notice("saving Cuckoo hash table")
	if err := store.SaveTableFile(params.Table.Filename, resp.Table, resp.Cells); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	color.Green("setup complete")
	return nil
}

func main() {
	app := cli.NewApp()
	app.Name = "receiver_setup"
	app.Usage = "run the Receiver's setup phase"
	app.Action = run
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
