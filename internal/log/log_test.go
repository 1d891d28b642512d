package log

import "testing"

// The leveled helpers must work before Init runs: archive engines and tests
// construct components that log during setup.
func TestHelpersBeforeInit(t *testing.T) {
	baseLogger = nil
	log = nil

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("logging before Init panicked: %v", r)
		}
	}()

	Debug("debug before init")
	Debugf("debugf before init: %d", 1)
	Info("info before init")
	Infof("infof before init: %d", 2)
	Warn("warn before init")
	Warnf("warnf before init: %d", 3)
	Error("error before init")
	Errorf("errorf before init: %d", 4)

	if GetSugaredLogger() == nil {
		t.Fatal("GetSugaredLogger returned nil after fallback")
	}
}
