package main

import (
	"context"
	"flag"
	"os"

	"github.com/golang/glog"
	"github.com/k8snetworkplumbingwg/hwalias/pkg/cli"
)

func main() {
	// glog writes to files by default; a command line tool logs to stderr
	_ = flag.Set("logtostderr", "true")
	err := cli.Execute(context.Background())
	glog.Flush()
	if err != nil {
		os.Exit(1)
	}
}
