package internal

import (
	"os"
	"os/signal"
	"syscall"
)

// InterruptCh returns a channel that closes when the process receives
// SIGINT or SIGTERM, for blocking a worker's Run until shutdown is
// requested.
func InterruptCh() <-chan interface{} {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	ret := make(chan interface{}, 1)
	go func() {
		s := <-c
		ret <- s
		close(ret)
	}()
	return ret
}
