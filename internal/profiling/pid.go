package profiling

import "os"

func processPID() int {
	return os.Getpid()
}
