package dispatch_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/railbook/engine/internal/dispatch"
)

// These tests drive the dispatcher with literal protocol lines, end to
// end, exercising one scenario each.

func TestScenarioS3QueueAndPromotion(t *testing.T) {
	e := newTestEngine(t)

	require.Equal(t, "0", run(t, e, "[1] add_user -c _ -u root -p pass -n Root -m root@x.com -g 10"))
	require.Equal(t, "0", run(t, e, "[2] login -u root -p pass"))
	for _, u := range []string{"u1", "u2", "u3"} {
		require.Equal(t, "0", run(t, e, "[3] add_user -c root -u "+u+" -p pass -n N -m "+u+"@x.com -g 1"))
		require.Equal(t, "0", run(t, e, "[4] login -u "+u+" -p pass"))
	}

	addTrain := "[5] add_train -i T2 -n 3 -m 1 -s X|Y|Z -p 10|10 -x 08:00 -t 60|60 -o 10 -d 07-01|07-01 -y G"
	require.Equal(t, "0", run(t, e, addTrain))
	require.Equal(t, "0", run(t, e, "[6] release_train -i T2"))

	// disjoint segments: X->Y and Y->Z share the same single seat
	require.NotEqual(t, "-1", run(t, e, "[20] buy_ticket -u u1 -i T2 -d 07-01 -n 1 -f X -t Y"))
	require.NotEqual(t, "-1", run(t, e, "[21] buy_ticket -u u2 -i T2 -d 07-01 -n 1 -f Y -t Z"))

	// X->Z overlaps both; no seats left, so it queues rather than failing
	require.Equal(t, "queue", run(t, e, "[22] buy_ticket -u u3 -i T2 -d 07-01 -n 1 -f X -t Z -q true"))

	require.Equal(t, "0", run(t, e, "[23] refund_ticket -u u1 -n 1"))
	// X->Z still needs Y->Z, which u2 holds; refunding u2 frees it too
	require.Equal(t, "0", run(t, e, "[24] refund_ticket -u u2 -n 1"))

	orderResp := run(t, e, "[25] query_order -u u3")
	require.Contains(t, orderResp, "[success]")
}

func TestScenarioS4PrivilegeRules(t *testing.T) {
	e := newTestEngine(t)

	require.Equal(t, "0", run(t, e, "[1] add_user -c _ -u root -p pass -n Root -m root@x.com -g 10"))
	require.Equal(t, "0", run(t, e, "[2] login -u root -p pass"))

	require.Equal(t, "0", run(t, e, "[30] add_user -c root -u alice -p a -n A -m a@x -g 5"))
	require.Equal(t, "0", run(t, e, "[31] login -u alice -p a"))

	// alice (privilege 5) cannot grant bob privilege 6 >= her own
	require.Equal(t, "-1", run(t, e, "[32] add_user -c alice -u bob -p b -n B -m b@x -g 6"))

	require.Equal(t, "alice A a@x 4", run(t, e, "[33] modify_profile -c alice -u alice -g 4"))
}

func TestScenarioS5TransferSaleWindowClamp(t *testing.T) {
	e := newTestEngine(t)

	require.Equal(t, "0", run(t, e, "[1] add_user -c _ -u root -p pass -n Root -m root@x.com -g 10"))
	require.Equal(t, "0", run(t, e, "[2] login -u root -p pass"))

	// leg1: S -> M, departs 06-10 08:00, arrives same day ~10:00
	leg1 := "[40] add_train -i L1 -n 2 -m 10 -s S|M -p 10 -x 08:00 -t 120 -o _ -d 06-08|06-20 -y G"
	require.Equal(t, "0", run(t, e, leg1))
	require.Equal(t, "0", run(t, e, "[41] release_train -i L1"))

	// leg2: M -> T, departs 06:00 at M (earlier in the day than leg1's
	// arrival), but its sale window doesn't open until 06-15 — well past
	// leg1's 06-10 arrival. Day-shifting back from the arrival would land
	// before the sale window opens; the clamp must pick 06-15 instead.
	leg2 := "[42] add_train -i L2 -n 2 -m 10 -s M|T -p 10 -x 06:00 -t 120 -o _ -d 06-15|06-25 -y G"
	require.Equal(t, "0", run(t, e, leg2))
	require.Equal(t, "0", run(t, e, "[43] release_train -i L2"))

	resp := run(t, e, "[44] query_transfer -s S -t T -d 06-10 -p time")
	lines := splitLines(resp)
	require.Len(t, lines, 2, "expected one line per leg: %q", resp)
	require.Contains(t, lines[0], "L1")
	require.Contains(t, lines[1], "L2")
	require.Contains(t, lines[1], "06-15", "leg2 must board on the sale window's first day, not a day shifted back from leg1's arrival")
}

func TestScenarioS6PersistenceAcrossRestart(t *testing.T) {
	dir := t.TempDir()

	e, err := dispatch.NewEngine(dir, testOpts(), 8, 8)
	require.NoError(t, err)

	require.Equal(t, "0", run(t, e, "[1] add_user -c _ -u root -p pass -n Root -m root@x.com -g 10"))
	require.Equal(t, "0", run(t, e, "[2] login -u root -p pass"))
	addTrain := "[3] add_train -i P1 -n 3 -m 5 -s A|B|C -p 10|15 -x 08:00 -t 60|60 -o 10 -d 06-01|06-30 -y G"
	require.Equal(t, "0", run(t, e, addTrain))
	require.Equal(t, "0", run(t, e, "[4] release_train -i P1"))
	buyResp := run(t, e, "[5] buy_ticket -u root -i P1 -f A -t C -d 06-01 -n 2")
	require.Equal(t, "50", buyResp)

	require.NoError(t, e.Close())

	reopened, err := dispatch.NewEngine(dir, testOpts(), 8, 8)
	require.NoError(t, err)
	defer reopened.Close()

	// a fresh session: root's login did not survive the restart, so
	// query_order needs a fresh login, but the train and order data must.
	require.Equal(t, "0", run(t, reopened, "[6] login -u root -p pass"))
	orderResp := run(t, reopened, "[7] query_order -u root")
	require.Contains(t, orderResp, "[success] P1 A 06-01 08:00 -> C 06-01 10:10 25 2")

	queryResp := run(t, reopened, "[8] query_ticket -s A -t C -d 06-01 -p time")
	require.Contains(t, queryResp, "P1")
}

// splitLines splits a response body on newlines, mirroring how the
// protocol's multi-line bodies (query_ticket, query_transfer, query_order)
// are framed.
func splitLines(body string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(body); i++ {
		if body[i] == '\n' {
			lines = append(lines, body[start:i])
			start = i + 1
		}
	}
	lines = append(lines, body[start:])
	return lines
}
