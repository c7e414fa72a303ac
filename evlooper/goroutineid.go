package evlooper

import (
	"bytes"
	"runtime"
	"strconv"
)

// goroutineID parses the calling goroutine's id out of runtime.Stack's
// header line ("goroutine 123 [running]:"). Grounded on the teacher
// event loop's getGoroutineID (loop.go), used the same way here: a
// best-effort debug check for "is this the looper's own goroutine", not
// a correctness mechanism.
func goroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := bytes.TrimPrefix(buf[:n], []byte("goroutine "))
	i := bytes.IndexByte(b, ' ')
	if i < 0 {
		return -1
	}
	id, err := strconv.ParseInt(string(b[:i]), 10, 64)
	if err != nil {
		return -1
	}
	return id
}
