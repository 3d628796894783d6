package dispatch_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/railbook/engine/internal/dispatch"
	"github.com/railbook/engine/internal/storage"
)

func testOpts() storage.Options {
	return storage.Options{Order: 4, LeafSize: 4, IndexCacheCap: 4, LeafCacheCap: 4}
}

func newTestEngine(t *testing.T) *dispatch.Engine {
	t.Helper()
	e, err := dispatch.NewEngine(t.TempDir(), testOpts(), 8, 8)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

// run executes line and returns its response body with the leading
// "[timestamp] " prefix stripped, for easier assertions.
func run(t *testing.T, e *dispatch.Engine, line string) string {
	t.Helper()
	resp, err := e.Execute(line)
	require.NoError(t, err)
	idx := 0
	for i, c := range resp {
		if c == ']' {
			idx = i + 2
			break
		}
	}
	return resp[idx:]
}

func TestParseLineRejectsMalformed(t *testing.T) {
	_, err := dispatch.ParseLine("no brackets here")
	require.Error(t, err)

	cmd, err := dispatch.ParseLine("[1] add_user -u root -p p -n Root -m r@x.com -g 10")
	require.NoError(t, err)
	require.Equal(t, 1, cmd.Timestamp)
	require.Equal(t, "add_user", cmd.Verb)
	require.Equal(t, "root", cmd.Params.Get('u'))
}

func TestEndToEndBuyAndRefund(t *testing.T) {
	e := newTestEngine(t)

	require.Equal(t, "0", run(t, e, "[1] add_user -c _ -u root -p pass -n Root -m root@x.com -g 10"))
	require.Equal(t, "0", run(t, e, "[2] login -u root -p pass"))

	addTrain := "[3] add_train -i G1 -n 3 -m 2 -s A|B|C -p 10|15 -x 08:00 -t 60|60 -o 10 -d 06-01|06-30 -y G"
	require.Equal(t, "0", run(t, e, addTrain))
	require.Equal(t, "0", run(t, e, "[4] release_train -i G1"))

	query := run(t, e, "[5] query_ticket -s A -t C -d 06-01 -p time")
	require.Contains(t, query, "G1")

	buyResp := run(t, e, "[6] buy_ticket -u root -i G1 -f A -t C -d 06-01 -n 2")
	require.Equal(t, "50", buyResp)

	require.Equal(t, "0", run(t, e, "[7] refund_ticket -u root -n 1"))

	orderResp := run(t, e, "[8] query_order -u root")
	require.Contains(t, orderResp, "refunded")
}

func TestCleanResetsState(t *testing.T) {
	e := newTestEngine(t)
	require.Equal(t, "0", run(t, e, "[1] add_user -c _ -u root -p pass -n Root -m root@x.com -g 10"))
	require.Equal(t, "0", run(t, e, "[2] clean"))
	// after clean, the first-user-is-root rule applies again
	require.Equal(t, "0", run(t, e, "[3] add_user -c _ -u root2 -p pass -n Root -m root2@x.com -g 10"))
}
