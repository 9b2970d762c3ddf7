// Command protocol runs a single-process end-to-end benchmark of the PSI
// protocol: it generates both parties' sets and keys in one process, builds
// and encrypts the table, then times the compute, recrypt and decrypt phases,
// skipping the network.
// For real deployments use sender_setup/receiver_setup and
// sender_intersect/receiver_intersect instead.
package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli"

	"github.com/momalab/psi-ndss2025/internal/crt"
	"github.com/momalab/psi-ndss2025/internal/cuckoo"
	"github.com/momalab/psi-ndss2025/internal/logging"
	"github.com/momalab/psi-ndss2025/internal/psi"
	"github.com/momalab/psi-ndss2025/internal/runid"
	"github.com/momalab/psi-ndss2025/internal/setfile"
)

var log = logging.MustGetLogger("protocol")

func atoiDefault(args cli.Args, i int, def uint64) uint64 {
	if i >= len(args) {
		return def
	}
	v, err := strconv.ParseUint(args.Get(i), 10, 64)
	if err != nil {
		return def
	}
	return v
}

func run(c *cli.Context) error {
	args := c.Args()
	if len(args) < 1 {
		return cli.NewExitError("usage: protocol <mode> <log2|X|> <|Y|> <m> <threads>\n"+
			"  mode: 0 (Fast Setup), 1 (Fast Intersection)", 1)
	}
	mode, err := strconv.ParseUint(args.Get(0), 10, 64)
	if err != nil {
		return cli.NewExitError("mode must be 0 or 1: "+err.Error(), 1)
	}
	log2X := atoiDefault(args, 1, 20)
	sizeY := atoiDefault(args, 2, 4)
	numSets := atoiDefault(args, 3, 1)
	numThreads := int(atoiDefault(args, 4, 4))

	tag, err := runid.New()
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	log.Noticef("run %s: mode %d, log2|X|=%d, |Y|=%d, %d set(s), %d threads", tag, mode, log2X, sizeY, numSets, numThreads)

	var ti []uint64
	var senderEta, receiverEta uint64
	var loadFactor float64
	if mode == 1 {
		ti = []uint64{40961}
		senderEta, receiverEta = 0, 0
		loadFactor = 0.86
	} else {
		ti = []uint64{40961, 65537}
		senderEta, receiverEta = 1, 1
		loadFactor = 0.87
	}

	numHashes := uint64(4)
	numTables := uint64(len(ti))
	tableSize := uint64(1) << (log2X - (numTables - 1))
	maxDepth := uint64(1) << 10
	bitSize := uint64(32)
	maxData := (uint64(1) << bitSize) - 1
	senderSetSize := uint64(loadFactor * float64(tableSize))

	log.Noticef("generating Sender's set (%d elements, %d bits)", senderSetSize, bitSize)
	senderSet := setfile.GenerateRandom(senderSetSize, bitSize)

	log.Noticef("generating %d Receiver set(s) overlapping the Sender's", numSets)
	receiverSets := make([][]uint64, numSets)
	for i := range receiverSets {
		receiverSets[i] = setfile.GenerateFromSource(sizeY, bitSize, senderSet, 0.5)
	}

	log.Notice("generating Sender's keys and evaluator")
	senderCtx, err := psi.NewContext(12, []int{27, 27, 27, 28}, nil, ti)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	sender, err := psi.GenerateKeys(senderCtx, false)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	log.Notice("generating Receiver's keys and evaluator")
	receiverCtx, err := psi.NewContext(12, []int{27, 27, 27, 28}, nil, ti)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	receiver, err := psi.GenerateKeys(receiverCtx, true)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	log.Notice("building Cuckoo hash table")
	table := cuckoo.New(numHashes, tableSize, maxData, maxDepth, numTables)
	if err := table.InsertSetParallel(senderSet); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	crtParams := crt.NewParams(ti)

	log.Notice("encrypting Cuckoo hash table")
	encryptedTable, err := psi.EncryptTableParallel(table, crtParams, senderCtx, sender, numThreads)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	var timeSender, timeReceiver time.Duration
	for i, set := range receiverSets {
		start := time.Now()
		results, randoms, err := psi.ComputeIntersectionParallel(set, table, encryptedTable, crtParams, senderEta, senderCtx, receiverCtx, sender, receiver, numThreads)
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		timeSender += time.Since(start)

		start = time.Now()
		finals, err := psi.RecryptParallel(results, randoms, crtParams, receiverEta, senderCtx, receiverCtx, sender, receiver, numThreads)
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		timeSender += time.Since(start)

		start = time.Now()
		intersection, err := psi.DecryptIntersectionParallel(finals, set, crtParams, receiverCtx, receiver, numThreads)
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		timeReceiver += time.Since(start)

		color.Cyan("set #%d: intersection size %d", i+1, len(intersection))
	}

	log.Noticef("sender time %s, receiver time %s", timeSender, timeReceiver)
	return nil
}

func main() {
	app := cli.NewApp()
	app.Name = "protocol"
	app.Usage = "single-process end-to-end PSI benchmark"
	app.Action = run
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
