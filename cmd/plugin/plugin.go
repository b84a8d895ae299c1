package main

import (
	"os"

	"github.com/prequel-dev/sigcascade/cmd/plugin/root"
	"github.com/prequel-dev/sigcascade/internal/pkg/sigs"
)

func main() {

	ctx := sigs.InitSignals()

	streams := root.IOStreams{
		Out:    os.Stdout,
		ErrOut: os.Stderr,
	}

	root.InitAndExecute(ctx, streams)
}
