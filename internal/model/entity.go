package model

import (
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"moneyScope/internal/weighted"
)

// Entity kinds as persisted in the entity store.
const (
	KindBar                   = "Bar"
	KindBarUser               = "BarUser"
	KindBarHistory            = "BarHistory"
	KindMasterChef            = "MasterChef"
	KindMasterChefPool        = "MasterChefPool"
	KindMasterChefUser        = "MasterChefUser"
	KindMasterChefHistory     = "MasterChefHistory"
	KindMasterChefPoolHistory = "MasterChefPoolHistory"
	KindFarming               = "Farming"
	KindFarmPool              = "FarmPool"
	KindFarmPoolRound         = "FarmPoolRound"
	KindFarmUser              = "FarmUser"
	KindFarmingHistory        = "FarmingHistory"
	KindFarmPoolHistory       = "FarmPoolHistory"
	KindLockup                = "Lockup"
	KindLockupPool            = "LockupPool"
	KindLockupUser            = "LockupUser"
)

// Entity is a persisted record addressed by kind and deterministic id.
type Entity interface {
	EntityKind() string
	EntityID() string
}

// Block carries the ambient block metadata of the event being mapped.
type Block struct {
	Number    uint64 `json:"number"`
	Timestamp uint64 `json:"timestamp"`
}

// DayIndex returns the day bucket of a unix timestamp.
func DayIndex(ts uint64) uint64 {
	return ts / weighted.SecondsPerDay
}

// JoinID builds a deterministic id from its parts.
func JoinID(parts ...string) string {
	return strings.Join(parts, "-")
}

// DayBucketID returns the id of the day bucket for an owner at ts.
func DayBucketID(owner string, ts uint64) string {
	return JoinID(owner, strconv.FormatUint(DayIndex(ts), 10))
}

// StringRef returns a nullable reference to id.
func StringRef(id string) *string {
	return &id
}

// AddressID renders an address the way entity ids and references store it.
func AddressID(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}
