package model

import (
	"github.com/cespare/xxhash/v2"

	"github.com/railbook/engine/internal/storage"
)

// HashString returns the xxhash of s, used to turn variable-length
// identifiers (train ids, usernames, station names) into fixed-width B+
// tree keys. Because xxhash is not collision-free, the catalog's primary
// index, the user store and the order ledger's by-user index filter their
// lookup results on the original identifier. The station and route indexes
// store only train ids; the planner checks each returned train's own stop
// list.
func HashString(s string) uint64 {
	return xxhash.Sum64String(s)
}

// StringCodec builds a fixed-width Codec for strings up to width bytes.
func StringCodec(width int) storage.Codec[string] {
	return storage.Codec[string]{
		Size:   width,
		Encode: func(v string, buf []byte) { storage.PutFixedString(buf, v) },
		Decode: func(buf []byte) string { return storage.GetFixedString(buf) },
	}
}

// Uint64Codec builds a fixed 8-byte Codec for uint64, used for hashed keys.
func Uint64Codec() storage.Codec[uint64] {
	return storage.Codec[uint64]{
		Size:   8,
		Encode: func(v uint64, buf []byte) { storage.PutInt64(buf, int64(v)) },
		Decode: func(buf []byte) uint64 { return uint64(storage.GetInt64(buf)) },
	}
}

// Int64Codec builds a fixed 8-byte Codec for int64, used for heap offsets
// stored as B+ tree values.
func Int64Codec() storage.Codec[int64] {
	return storage.Codec[int64]{
		Size:   8,
		Encode: func(v int64, buf []byte) { storage.PutInt64(buf, v) },
		Decode: func(buf []byte) int64 { return storage.GetInt64(buf) },
	}
}

func dateCodec() (int, func(Date, []byte), func([]byte) Date) {
	return 8, func(d Date, buf []byte) {
			storage.PutInt32(buf[0:4], int32(d.Month))
			storage.PutInt32(buf[4:8], int32(d.Day))
		}, func(buf []byte) Date {
			return Date{Month: int(storage.GetInt32(buf[0:4])), Day: int(storage.GetInt32(buf[4:8]))}
		}
}

// UniTrainCodec builds a fixed-width Codec for UniTrain keys (a fixed
// trainIDWidth-byte train id followed by an 8-byte date).
func UniTrainCodec(trainIDWidth int) storage.Codec[UniTrain] {
	dateSize, encDate, decDate := dateCodec()
	size := trainIDWidth + dateSize
	return storage.Codec[UniTrain]{
		Size: size,
		Encode: func(v UniTrain, buf []byte) {
			storage.PutFixedString(buf[:trainIDWidth], v.TrainID)
			encDate(v.Date, buf[trainIDWidth:])
		},
		Decode: func(buf []byte) UniTrain {
			return UniTrain{
				TrainID: storage.GetFixedString(buf[:trainIDWidth]),
				Date:    decDate(buf[trainIDWidth:]),
			}
		},
	}
}

// TrainIDWidth and UsernameWidth bound the fixed-width encodings used
// throughout the catalog and users stores; they match the protocol's own
// documented field-length limits.
const (
	TrainIDWidth  = 20
	UsernameWidth = 20
	StationWidth  = 32
	NameWidth     = 20
	PasswordWidth = 32
	MailWidth     = 32
)

func timeCodec() (int, func(Time, []byte), func([]byte) Time) {
	return 8, func(t Time, buf []byte) {
			storage.PutInt32(buf[0:4], int32(t.Hour))
			storage.PutInt32(buf[4:8], int32(t.Minute))
		}, func(buf []byte) Time {
			return Time{Hour: int(storage.GetInt32(buf[0:4])), Minute: int(storage.GetInt32(buf[4:8]))}
		}
}

// TrainCodec builds the fixed-width Codec used to store Train records as
// B+ tree values in the catalog's primary index.
func TrainCodec() storage.Codec[Train] {
	dateSize, encDate, decDate := dateCodec()
	timeSize, encTime, decTime := timeCodec()
	stationsSize := MaxStations * StationWidth
	pricesSize := MaxStations * 4
	arrSize := MaxStations * timeSize
	depSize := MaxStations * timeSize
	size := TrainIDWidth + 1 + 4 + stationsSize + 4 + pricesSize + arrSize + depSize + dateSize*2 + 1 + 8

	return storage.Codec[Train]{
		Size: size,
		Encode: func(v Train, buf []byte) {
			off := 0
			storage.PutFixedString(buf[off:off+TrainIDWidth], v.TrainID)
			off += TrainIDWidth
			buf[off] = v.Type
			off++
			storage.PutInt32(buf[off:], int32(v.StationNum))
			off += 4
			for i := 0; i < MaxStations; i++ {
				storage.PutFixedString(buf[off:off+StationWidth], v.Stations[i])
				off += StationWidth
			}
			storage.PutInt32(buf[off:], int32(v.SeatNum))
			off += 4
			for i := 0; i < MaxStations; i++ {
				storage.PutInt32(buf[off:], int32(v.Prices[i]))
				off += 4
			}
			for i := 0; i < MaxStations; i++ {
				encTime(v.ArrivalTimes[i], buf[off:])
				off += timeSize
			}
			for i := 0; i < MaxStations; i++ {
				encTime(v.DepartureTimes[i], buf[off:])
				off += timeSize
			}
			encDate(v.SaleDateStart, buf[off:])
			off += dateSize
			encDate(v.SaleDateEnd, buf[off:])
			off += dateSize
			storage.PutBool(buf[off:], v.IsReleased)
			off++
			storage.PutInt64(buf[off:], v.SeatMapPos)
		},
		Decode: func(buf []byte) Train {
			var v Train
			off := 0
			v.TrainID = storage.GetFixedString(buf[off : off+TrainIDWidth])
			off += TrainIDWidth
			v.Type = buf[off]
			off++
			v.StationNum = int(storage.GetInt32(buf[off:]))
			off += 4
			for i := 0; i < MaxStations; i++ {
				v.Stations[i] = storage.GetFixedString(buf[off : off+StationWidth])
				off += StationWidth
			}
			v.SeatNum = int(storage.GetInt32(buf[off:]))
			off += 4
			for i := 0; i < MaxStations; i++ {
				v.Prices[i] = int(storage.GetInt32(buf[off:]))
				off += 4
			}
			for i := 0; i < MaxStations; i++ {
				v.ArrivalTimes[i] = decTime(buf[off:])
				off += timeSize
			}
			for i := 0; i < MaxStations; i++ {
				v.DepartureTimes[i] = decTime(buf[off:])
				off += timeSize
			}
			v.SaleDateStart = decDate(buf[off:])
			off += dateSize
			v.SaleDateEnd = decDate(buf[off:])
			off += dateSize
			v.IsReleased = storage.GetBool(buf[off:])
			off++
			v.SeatMapPos = storage.GetInt64(buf[off:])
			return v
		},
	}
}

// UserCodec builds the fixed-width Codec for User records.
func UserCodec() storage.Codec[User] {
	size := UsernameWidth + PasswordWidth + NameWidth + MailWidth + 4
	return storage.Codec[User]{
		Size: size,
		Encode: func(v User, buf []byte) {
			off := 0
			storage.PutFixedString(buf[off:off+UsernameWidth], v.Username)
			off += UsernameWidth
			storage.PutFixedString(buf[off:off+PasswordWidth], v.Password)
			off += PasswordWidth
			storage.PutFixedString(buf[off:off+NameWidth], v.Name)
			off += NameWidth
			storage.PutFixedString(buf[off:off+MailWidth], v.Mail)
			off += MailWidth
			storage.PutInt32(buf[off:], int32(v.Privilege))
		},
		Decode: func(buf []byte) User {
			var v User
			off := 0
			v.Username = storage.GetFixedString(buf[off : off+UsernameWidth])
			off += UsernameWidth
			v.Password = storage.GetFixedString(buf[off : off+PasswordWidth])
			off += PasswordWidth
			v.Name = storage.GetFixedString(buf[off : off+NameWidth])
			off += NameWidth
			v.Mail = storage.GetFixedString(buf[off : off+MailWidth])
			off += MailWidth
			v.Privilege = Privilege(storage.GetInt32(buf[off:]))
			return v
		},
	}
}

// OrderCodec builds the fixed-width Codec for Order records stored in the
// order ledger's heap file.
func OrderCodec() storage.Codec[Order] {
	dateSize, encDate, decDate := dateCodec()
	timeSize, encTP, decTP := timePointCodec()
	size := UsernameWidth + TrainIDWidth + dateSize + StationWidth + 4 + timeSize + StationWidth + 4 + timeSize + 4 + 4 + 4 + 4

	return storage.Codec[Order]{
		Size: size,
		Encode: func(v Order, buf []byte) {
			off := 0
			storage.PutFixedString(buf[off:off+UsernameWidth], v.Username)
			off += UsernameWidth
			storage.PutFixedString(buf[off:off+TrainIDWidth], v.TrainID)
			off += TrainIDWidth
			encDate(v.OriginDate, buf[off:])
			off += dateSize
			storage.PutFixedString(buf[off:off+StationWidth], v.FromStation)
			off += StationWidth
			storage.PutInt32(buf[off:], int32(v.FromIndex))
			off += 4
			encTP(v.StartTime, buf[off:])
			off += timeSize
			storage.PutFixedString(buf[off:off+StationWidth], v.ToStation)
			off += StationWidth
			storage.PutInt32(buf[off:], int32(v.ToIndex))
			off += 4
			encTP(v.EndTime, buf[off:])
			off += timeSize
			storage.PutInt32(buf[off:], int32(v.TicketNum))
			off += 4
			storage.PutInt32(buf[off:], int32(v.Timestamp))
			off += 4
			storage.PutInt32(buf[off:], int32(v.PricePerSeat))
			off += 4
			storage.PutInt32(buf[off:], int32(v.Status))
		},
		Decode: func(buf []byte) Order {
			var v Order
			off := 0
			v.Username = storage.GetFixedString(buf[off : off+UsernameWidth])
			off += UsernameWidth
			v.TrainID = storage.GetFixedString(buf[off : off+TrainIDWidth])
			off += TrainIDWidth
			v.OriginDate = decDate(buf[off:])
			off += dateSize
			v.FromStation = storage.GetFixedString(buf[off : off+StationWidth])
			off += StationWidth
			v.FromIndex = int(storage.GetInt32(buf[off:]))
			off += 4
			v.StartTime = decTP(buf[off:])
			off += timeSize
			v.ToStation = storage.GetFixedString(buf[off : off+StationWidth])
			off += StationWidth
			v.ToIndex = int(storage.GetInt32(buf[off:]))
			off += 4
			v.EndTime = decTP(buf[off:])
			off += timeSize
			v.TicketNum = int(storage.GetInt32(buf[off:]))
			off += 4
			v.Timestamp = int(storage.GetInt32(buf[off:]))
			off += 4
			v.PricePerSeat = int(storage.GetInt32(buf[off:]))
			off += 4
			v.Status = OrderStatus(storage.GetInt32(buf[off:]))
			return v
		},
	}
}

func timePointCodec() (int, func(TimePoint, []byte), func([]byte) TimePoint) {
	dateSize, encDate, decDate := dateCodec()
	timeSize, encTime, decTime := timeCodec()
	size := dateSize + timeSize
	return size, func(v TimePoint, buf []byte) {
			encDate(v.Date, buf[:dateSize])
			encTime(v.Time, buf[dateSize:])
		}, func(buf []byte) TimePoint {
			return TimePoint{Date: decDate(buf[:dateSize]), Time: decTime(buf[dateSize:])}
		}
}

// SeatMapCodec builds the fixed-width Codec for SeatMap extents stored in
// the seat heap file.
func SeatMapCodec() storage.Codec[SeatMap] {
	size := 4 + MaxStations*4
	return storage.Codec[SeatMap]{
		Size: size,
		Encode: func(v SeatMap, buf []byte) {
			storage.PutInt32(buf[0:4], int32(v.StationNum))
			off := 4
			for i := 0; i < MaxStations; i++ {
				storage.PutInt32(buf[off:], int32(v.Seats[i]))
				off += 4
			}
		},
		Decode: func(buf []byte) SeatMap {
			var v SeatMap
			v.StationNum = int(storage.GetInt32(buf[0:4]))
			off := 4
			for i := 0; i < MaxStations; i++ {
				v.Seats[i] = int(storage.GetInt32(buf[off:]))
				off += 4
			}
			return v
		},
	}
}
