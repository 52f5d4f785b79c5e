package inmemdb

import (
	"testing"

	"github.com/parroquia/portal/tests"
)

func TestLedger(t *testing.T) {
	testutil.TestLedger(t, NewLedger(Open()))
}
