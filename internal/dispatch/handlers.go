package dispatch

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/railbook/engine/internal/booking"
	"github.com/railbook/engine/internal/catalog"
	"github.com/railbook/engine/internal/model"
	"github.com/railbook/engine/internal/planner"
	"github.com/railbook/engine/internal/users"
)

// domainSentinels lists every error that represents a rejected request
// rather than a storage failure: Execute reports these to the caller as
// an ordinary "-1" response line, not a structural error to log and
// abort on.
var domainSentinels = []error{
	catalog.ErrTrainExists, catalog.ErrTrainNotFound, catalog.ErrAlreadyReleased,
	users.ErrUserExists, users.ErrUserNotFound, users.ErrWrongPassword,
	users.ErrNotLoggedIn, users.ErrPrivilege,
	booking.ErrNotLoggedIn, booking.ErrInvalidRoute, booking.ErrTrainNotOnSale,
	booking.ErrTooManySeats, booking.ErrNoSeatsAvailable, booking.ErrOrderNotFound,
	booking.ErrAlreadyRefunded,
}

// isDomainFailure reports whether err represents a rejected request.
func isDomainFailure(err error) bool {
	for _, sentinel := range domainSentinels {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// Execute parses and runs a single command-protocol line, returning its
// response line. A non-nil error means a structural failure (disk I/O,
// a malformed command) that the caller should log and likely treat as
// fatal; a rejected request is instead reported as an ordinary "-1"
// response with a nil error.
func (e *Engine) Execute(line string) (string, error) {
	cmd, err := ParseLine(line)
	if err != nil {
		return "", err
	}

	body, err := e.dispatch(cmd)
	if err != nil {
		if isDomainFailure(err) {
			return fmt.Sprintf("[%d] -1", cmd.Timestamp), nil
		}
		return "", err
	}
	return fmt.Sprintf("[%d] %s", cmd.Timestamp, body), nil
}

func (e *Engine) dispatch(cmd ParsedCommand) (string, error) {
	p := cmd.Params
	switch cmd.Verb {
	case "add_user":
		return e.handleAddUser(p)
	case "login":
		return e.handleLogin(p)
	case "logout":
		return e.handleLogout(p)
	case "query_profile":
		return e.handleQueryProfile(p)
	case "modify_profile":
		return e.handleModifyProfile(p)
	case "add_train":
		return e.handleAddTrain(p)
	case "delete_train":
		return e.handleDeleteTrain(p)
	case "release_train":
		return e.handleReleaseTrain(p)
	case "query_train":
		return e.handleQueryTrain(p)
	case "query_ticket":
		return e.handleQueryTicket(p)
	case "query_transfer":
		return e.handleQueryTransfer(p)
	case "buy_ticket":
		return e.handleBuyTicket(p, cmd.Timestamp)
	case "query_order":
		return e.handleQueryOrder(p)
	case "refund_ticket":
		return e.handleRefundTicket(p)
	case "clean":
		if err := e.Clean(); err != nil {
			return "", err
		}
		return "0", nil
	case "exit":
		return "bye", nil
	default:
		return "", errors.Errorf("unknown verb %q", cmd.Verb)
	}
}

func (e *Engine) handleAddUser(p Params) (string, error) {
	privilege, err := p.IntOr('g', int(model.PrivilegeRoot))
	if err != nil {
		return "", err
	}
	newUser := model.User{
		Username:  p.Get('u'),
		Password:  p.Get('p'),
		Name:      p.Get('n'),
		Mail:      p.Get('m'),
		Privilege: model.Privilege(privilege),
	}
	if err := e.Users.Add(p.Get('c'), newUser); err != nil {
		return "", err
	}
	return "0", nil
}

func (e *Engine) handleLogin(p Params) (string, error) {
	if err := e.Users.Login(p.Get('u'), p.Get('p')); err != nil {
		return "", err
	}
	return "0", nil
}

func (e *Engine) handleLogout(p Params) (string, error) {
	if err := e.Users.Logout(p.Get('u')); err != nil {
		return "", err
	}
	return "0", nil
}

func (e *Engine) handleQueryProfile(p Params) (string, error) {
	profile, err := e.Users.QueryProfile(p.Get('c'), p.Get('u'))
	if err != nil {
		return "", err
	}
	return formatProfile(profile), nil
}

func (e *Engine) handleModifyProfile(p Params) (string, error) {
	var update users.ProfileUpdate
	if p.Has('p') {
		v := p.Get('p')
		update.Password = &v
	}
	if p.Has('n') {
		v := p.Get('n')
		update.Name = &v
	}
	if p.Has('m') {
		v := p.Get('m')
		update.Mail = &v
	}
	if p.Has('g') {
		n, err := p.Int('g')
		if err != nil {
			return "", err
		}
		v := model.Privilege(n)
		update.Privilege = &v
	}
	profile, err := e.Users.ModifyProfile(p.Get('c'), p.Get('u'), update)
	if err != nil {
		return "", err
	}
	return formatProfile(profile), nil
}

func formatProfile(pr model.Profile) string {
	return fmt.Sprintf("%s %s %s %d", pr.Username, pr.Name, pr.Mail, pr.Privilege)
}

func (e *Engine) handleAddTrain(p Params) (string, error) {
	stationNum, err := p.Int('n')
	if err != nil {
		return "", err
	}
	seatNum, err := p.Int('m')
	if err != nil {
		return "", err
	}
	stations, err := p.CSVStrings('s')
	if err != nil {
		return "", err
	}
	prices, err := p.CSVInts('p')
	if err != nil {
		return "", err
	}
	startTime, err := model.ParseTime(p.Get('x'))
	if err != nil {
		return "", err
	}
	travelTimes, err := p.CSVInts('t')
	if err != nil {
		return "", err
	}
	stopoverTimes, err := parseStopovers(p.Get('o'), stationNum)
	if err != nil {
		return "", err
	}
	dateRange := strings.Split(p.Get('d'), "|")
	if len(dateRange) != 2 {
		return "", errors.Errorf("malformed -d %q", p.Get('d'))
	}
	saleStart, err := model.ParseDate(dateRange[0])
	if err != nil {
		return "", err
	}
	saleEnd, err := model.ParseDate(dateRange[1])
	if err != nil {
		return "", err
	}
	var trainType byte
	if t := p.Get('y'); t != "" {
		trainType = t[0]
	}

	train := model.Train{
		TrainID:       p.Get('i'),
		Type:          trainType,
		StationNum:    stationNum,
		SeatNum:       seatNum,
		SaleDateStart: saleStart,
		SaleDateEnd:   saleEnd,
		SeatMapPos:    -1,
	}
	for i := 0; i < stationNum; i++ {
		train.Stations[i] = stations[i]
	}
	train.ArrivalTimes, train.DepartureTimes, train.Prices = buildSchedule(stationNum, startTime, travelTimes, stopoverTimes, prices)

	if err := e.Catalog.Add(train); err != nil {
		return "", err
	}
	return "0", nil
}

// parseStopovers parses the "-o" pipe-separated stopover-time list, which
// the protocol allows to be the literal "_" when a train has no
// intermediate stops to dwell at.
func parseStopovers(raw string, stationNum int) ([]int, error) {
	if raw == "_" || raw == "" {
		return make([]int, stationNum), nil
	}
	parts := strings.Split(raw, "|")
	out := make([]int, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, errors.Wrapf(err, "parse stopover %q", part)
		}
		out[i] = n
	}
	return out, nil
}

func (e *Engine) handleDeleteTrain(p Params) (string, error) {
	if err := e.Catalog.Delete(p.Get('i')); err != nil {
		return "", err
	}
	return "0", nil
}

func (e *Engine) handleReleaseTrain(p Params) (string, error) {
	trainID := p.Get('i')
	train, err := e.Catalog.Query(trainID)
	if err != nil {
		return "", err
	}
	if train.IsReleased {
		return "", catalog.ErrAlreadyReleased
	}
	numDays := train.SaleDateEnd.DiffDays(train.SaleDateStart) + 1
	basePos, err := e.Seats.Reserve(train.StationNum, train.SeatNum, numDays)
	if err != nil {
		return "", err
	}
	if _, err := e.Catalog.Release(trainID, basePos); err != nil {
		return "", err
	}
	return "0", nil
}

func (e *Engine) handleQueryTrain(p Params) (string, error) {
	trainID := p.Get('i')
	date, err := model.ParseDate(p.Get('d'))
	if err != nil {
		return "", err
	}
	train, err := e.Catalog.Query(trainID)
	if err != nil {
		return "", err
	}
	origin := date
	if origin.Less(train.SaleDateStart) || train.SaleDateEnd.Less(origin) {
		return "", catalog.ErrTrainNotFound
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s %d %c\n", train.TrainID, train.SeatNum, train.Type))
	for i := 0; i < train.StationNum; i++ {
		var avail string
		if i == train.StationNum-1 {
			avail = "x"
		} else {
			n := 0
			if train.IsReleased {
				a, err := e.Seats.Available(train.SeatMapPos, train.SaleDateStart, origin, i, i+1)
				if err != nil {
					return "", err
				}
				n = a
			} else {
				n = train.SeatNum
			}
			avail = strconv.Itoa(n)
		}

		arriveStr := "xx-xx xx:xx"
		if i > 0 {
			arriveStr = model.NewTimePoint(origin, train.ArrivalTimes[i]).String()
		}
		departStr := "xx-xx xx:xx"
		if i < train.StationNum-1 {
			departStr = model.NewTimePoint(origin, train.DepartureTimes[i]).String()
		}
		sb.WriteString(fmt.Sprintf("%s %s -> %s %d %s", train.Stations[i], arriveStr, departStr, train.Prices[i], avail))
		if i != train.StationNum-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}

func (e *Engine) handleQueryTicket(p Params) (string, error) {
	date, err := model.ParseDate(p.Get('d'))
	if err != nil {
		return "", err
	}
	order := planner.ParseOrderBy(p.Get('p'))
	tickets, err := planner.QueryDirect(e.Catalog, e.Seats, p.Get('s'), p.Get('t'), date, order)
	if err != nil {
		return "", err
	}
	if len(tickets) == 0 {
		return "0", nil
	}
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(len(tickets)))
	for _, t := range tickets {
		sb.WriteString("\n")
		sb.WriteString(t.Format())
	}
	return sb.String(), nil
}

func (e *Engine) handleQueryTransfer(p Params) (string, error) {
	date, err := model.ParseDate(p.Get('d'))
	if err != nil {
		return "", err
	}
	order := planner.ParseOrderBy(p.Get('p'))
	transfer, ok, err := planner.QueryTransfer(e.Catalog, e.Seats, p.Get('s'), p.Get('t'), date, order)
	if err != nil {
		return "", err
	}
	if !ok {
		return "0", nil
	}
	return transfer.Leg1.Format() + "\n" + transfer.Leg2.Format(), nil
}

func (e *Engine) handleBuyTicket(p Params, timestamp int) (string, error) {
	date, err := model.ParseDate(p.Get('d'))
	if err != nil {
		return "", err
	}
	ticketNum, err := p.Int('n')
	if err != nil {
		return "", err
	}
	allowQueue := p.Bool('q', false)

	result, err := e.Booking.Buy(p.Get('u'), p.Get('i'), date, p.Get('f'), p.Get('t'), ticketNum, timestamp, allowQueue)
	if err != nil {
		return "", err
	}
	if result.Queued {
		return "queue", nil
	}
	return strconv.Itoa(result.TotalPrice), nil
}

func (e *Engine) handleQueryOrder(p Params) (string, error) {
	if !e.Users.IsLoggedIn(p.Get('u')) {
		return "", users.ErrNotLoggedIn
	}
	refs, err := e.Orders.ListByUser(p.Get('u'))
	if err != nil {
		return "", err
	}
	if len(refs) == 0 {
		return "0", nil
	}
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(len(refs)))
	for i := len(refs) - 1; i >= 0; i-- {
		sb.WriteString("\n")
		sb.WriteString(refs[i].Order.Format())
	}
	return sb.String(), nil
}

func (e *Engine) handleRefundTicket(p Params) (string, error) {
	idx, err := p.IntOr('n', 1)
	if err != nil {
		return "", err
	}
	if err := e.Booking.Refund(p.Get('u'), idx); err != nil {
		return "", err
	}
	return "0", nil
}
