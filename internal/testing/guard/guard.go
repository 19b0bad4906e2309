package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("NETINV_TEST_MODE") == "" {
			_ = os.Setenv("NETINV_TEST_MODE", "1")
		}
	})
}
