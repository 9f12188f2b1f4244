package head

import (
	"os"
	"testing"

	"go.uber.org/goleak"
)

// initGoroutines holds the goroutines started by package initialisers of our
// dependencies, such as the keystore file watcher.
var initGoroutines goleak.Option

func TestMain(m *testing.M) {
	initGoroutines = goleak.IgnoreCurrent()
	os.Exit(m.Run())
}

func verifyNoLeaks(t *testing.T) {
	t.Helper()
	goleak.VerifyNone(t,
		initGoroutines,
		goleak.IgnoreTopFunction("github.com/rjeczalik/notify.(*nonrecursiveTree).internal"),
	)
}
