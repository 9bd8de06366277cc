package events

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"moneyScope/internal/contracts"
	"moneyScope/internal/model"
)

var (
	// ErrUnknownEvent is returned for logs whose topic0 the family does not map.
	ErrUnknownEvent = errors.New("unknown event")
	// ErrUnknownMethod is returned for calls whose selector the family does not map.
	ErrUnknownMethod = errors.New("unknown method")
)

type familyABI struct {
	parsed abi.ABI
	topics map[string]abi.Event
}

// Decoder turns raw log and call records into typed events.
type Decoder struct {
	families map[Family]familyABI
}

// NewDecoder parses every contract ABI.
func NewDecoder() (*Decoder, error) {
	loaders := map[Family]func() (abi.ABI, error){
		FamilyBar:         contracts.BarABI,
		FamilyMasterChef:  contracts.MasterChefABI,
		FamilyFarmFactory: contracts.FarmFactoryABI,
		FamilyFarm:        contracts.FarmABI,
	}

	d := &Decoder{families: make(map[Family]familyABI, len(loaders))}
	for family, load := range loaders {
		parsed, err := load()
		if err != nil {
			return nil, fmt.Errorf("parse %s abi: %w", family, err)
		}
		topics := make(map[string]abi.Event, len(parsed.Events))
		for _, event := range parsed.Events {
			topics[strings.ToLower(event.ID.Hex())] = event
		}
		d.families[family] = familyABI{parsed: parsed, topics: topics}
	}
	return d, nil
}

// Topic0 returns the topic0 hashes a family maps, for log filters.
func (d *Decoder) Topic0(family Family) []common.Hash {
	fam, ok := d.families[family]
	if !ok {
		return nil
	}
	out := make([]common.Hash, 0, len(fam.topics))
	for _, event := range fam.parsed.Events {
		out = append(out, event.ID)
	}
	return out
}

// DecodeLog decodes a log against a family's events.
func (d *Decoder) DecodeLog(family Family, rec model.LogRecord) (Event, error) {
	fam, ok := d.families[family]
	if !ok {
		return nil, fmt.Errorf("unsupported family %q", family)
	}
	topic0 := rec.Topic0()
	if topic0 == "" {
		return nil, fmt.Errorf("missing topics")
	}
	event, ok := fam.topics[strings.ToLower(topic0)]
	if !ok {
		return nil, fmt.Errorf("%w: %s topic0 %s", ErrUnknownEvent, family, topic0)
	}
	emitter, ok := rec.Emitter()
	if !ok {
		return nil, fmt.Errorf("invalid log address: %s", rec.Address)
	}

	meta := Meta{
		Block:   model.Block{Number: rec.BlockNumber, Timestamp: rec.Timestamp},
		TxHash:  rec.TxHash,
		TxIndex: rec.TxIndex,
		Index:   rec.LogIndex,
		Address: emitter,
		Name:    event.Name,
		Topic0:  topic0,
	}

	switch {
	case family == FamilyBar && event.Name == "Transfer":
		return decodeTransfer(meta, event, rec)
	case family == FamilyMasterChef && (event.Name == "Deposit" || event.Name == "Withdraw" || event.Name == "EmergencyWithdraw"):
		return decodeChefAction(meta, event, rec)
	case event.Name == "OwnershipTransferred":
		var indexed struct {
			PreviousOwner common.Address
			NewOwner      common.Address
		}
		if err := parseIndexed(event, rec.Topics, &indexed); err != nil {
			return nil, err
		}
		return OwnershipTransferred{Meta: meta, PreviousOwner: indexed.PreviousOwner, NewOwner: indexed.NewOwner}, nil
	case family == FamilyFarmFactory && event.Name == "NewPool":
		return decodeNewPool(meta, event, rec)
	case family == FamilyFarmFactory && event.Name == "UpdatePool":
		return decodeUpdatePool(meta, event, rec)
	case family == FamilyFarm && (event.Name == "Deposit" || event.Name == "Withdraw"):
		return decodeFarmAction(meta, event, rec)
	case family == FamilyFarm && event.Name == "PoolUpdated":
		values, err := unpackNonIndexed(event, rec.Data)
		if err != nil {
			return nil, err
		}
		ints, err := bigInts(values, 2)
		if err != nil {
			return nil, fmt.Errorf("PoolUpdated: %w", err)
		}
		return PoolUpdated{Meta: meta, RoundID: ints[0], AccMoneyPerShare: ints[1]}, nil
	default:
		return nil, fmt.Errorf("%w: %s %s", ErrUnknownEvent, family, event.Name)
	}
}

func decodeTransfer(meta Meta, event abi.Event, rec model.LogRecord) (Event, error) {
	var indexed struct {
		From common.Address
		To   common.Address
	}
	if err := parseIndexed(event, rec.Topics, &indexed); err != nil {
		return nil, err
	}
	values, err := unpackNonIndexed(event, rec.Data)
	if err != nil {
		return nil, err
	}
	ints, err := bigInts(values, 1)
	if err != nil {
		return nil, fmt.Errorf("Transfer: %w", err)
	}
	return Transfer{Meta: meta, From: indexed.From, To: indexed.To, Value: ints[0]}, nil
}

func decodeChefAction(meta Meta, event abi.Event, rec model.LogRecord) (Event, error) {
	var indexed struct {
		User common.Address
		Pid  *big.Int
	}
	if err := parseIndexed(event, rec.Topics, &indexed); err != nil {
		return nil, err
	}
	values, err := unpackNonIndexed(event, rec.Data)
	if err != nil {
		return nil, err
	}
	ints, err := bigInts(values, 1)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", event.Name, err)
	}

	switch event.Name {
	case "Deposit":
		return ChefDeposit{Meta: meta, User: indexed.User, Pid: indexed.Pid, Amount: ints[0]}, nil
	case "Withdraw":
		return ChefWithdraw{Meta: meta, User: indexed.User, Pid: indexed.Pid, Amount: ints[0]}, nil
	default:
		return ChefEmergencyWithdraw{Meta: meta, User: indexed.User, Pid: indexed.Pid, Amount: ints[0]}, nil
	}
}

func decodeNewPool(meta Meta, event abi.Event, rec model.LogRecord) (Event, error) {
	var indexed struct {
		Farm    common.Address
		LpToken common.Address
	}
	if err := parseIndexed(event, rec.Topics, &indexed); err != nil {
		return nil, err
	}
	values, err := unpackNonIndexed(event, rec.Data)
	if err != nil {
		return nil, err
	}
	if len(values) != 2 {
		return nil, fmt.Errorf("unexpected NewPool values: %d", len(values))
	}
	alloc, err := contracts.AsBigInt(values[0])
	if err != nil {
		return nil, err
	}
	fee, err := contracts.AsUint16(values[1])
	if err != nil {
		return nil, err
	}
	return NewPool{Meta: meta, Farm: indexed.Farm, LPToken: indexed.LpToken, AllocPoint: alloc, DepositFeeBP: fee}, nil
}

func decodeUpdatePool(meta Meta, event abi.Event, rec model.LogRecord) (Event, error) {
	var indexed struct {
		Farm common.Address
	}
	if err := parseIndexed(event, rec.Topics, &indexed); err != nil {
		return nil, err
	}
	values, err := unpackNonIndexed(event, rec.Data)
	if err != nil {
		return nil, err
	}
	if len(values) != 2 {
		return nil, fmt.Errorf("unexpected UpdatePool values: %d", len(values))
	}
	alloc, err := contracts.AsBigInt(values[0])
	if err != nil {
		return nil, err
	}
	fee, err := contracts.AsUint16(values[1])
	if err != nil {
		return nil, err
	}
	return UpdatePool{Meta: meta, Farm: indexed.Farm, AllocPoint: alloc, DepositFeeBP: fee}, nil
}

func decodeFarmAction(meta Meta, event abi.Event, rec model.LogRecord) (Event, error) {
	var indexed struct {
		User common.Address
	}
	if err := parseIndexed(event, rec.Topics, &indexed); err != nil {
		return nil, err
	}
	values, err := unpackNonIndexed(event, rec.Data)
	if err != nil {
		return nil, err
	}
	ints, err := bigInts(values, 3)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", event.Name, err)
	}
	if event.Name == "Deposit" {
		return FarmDeposit{Meta: meta, User: indexed.User, Amount: ints[0], RoundID: ints[1], Rewards: ints[2]}, nil
	}
	return FarmWithdraw{Meta: meta, User: indexed.User, Amount: ints[0], RoundID: ints[1], Rewards: ints[2]}, nil
}

// DecodeCall decodes a call's input (and, for pullRewards, output) against a
// family's methods. Reverted calls are rejected.
func (d *Decoder) DecodeCall(family Family, rec model.CallRecord) (Event, error) {
	fam, ok := d.families[family]
	if !ok {
		return nil, fmt.Errorf("unsupported family %q", family)
	}
	if rec.Reverted {
		return nil, fmt.Errorf("call %s reverted", rec.TxHash)
	}
	selector, args, err := rec.Selector()
	if err != nil {
		return nil, err
	}
	method, err := fam.parsed.MethodById(selector[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %s selector %s", ErrUnknownMethod, family, hexutil.Encode(selector[:]))
	}
	if !common.IsHexAddress(rec.To) {
		return nil, fmt.Errorf("invalid call target: %s", rec.To)
	}

	meta := Meta{
		Block:    model.Block{Number: rec.BlockNumber, Timestamp: rec.Timestamp},
		TxHash:   rec.TxHash,
		TxIndex:  rec.TxIndex,
		Index:    rec.CallIndex,
		Address:  common.HexToAddress(rec.To),
		Name:     method.Name,
		Selector: hexutil.Encode(selector[:]),
	}

	inputs, err := method.Inputs.Unpack(args)
	if err != nil {
		return nil, fmt.Errorf("unpack %s inputs: %w", method.Name, err)
	}

	switch {
	case family == FamilyMasterChef && method.Name == "add":
		if len(inputs) != 4 {
			return nil, fmt.Errorf("unexpected add inputs: %d", len(inputs))
		}
		alloc, err := contracts.AsBigInt(inputs[0])
		if err != nil {
			return nil, err
		}
		lp, err := contracts.AsAddress(inputs[1])
		if err != nil {
			return nil, err
		}
		fee, err := contracts.AsUint16(inputs[2])
		if err != nil {
			return nil, err
		}
		withUpdate, err := contracts.AsBool(inputs[3])
		if err != nil {
			return nil, err
		}
		return ChefAdd{Meta: meta, AllocPoint: alloc, LPToken: lp, DepositFeeBP: fee, WithUpdate: withUpdate}, nil
	case family == FamilyMasterChef && method.Name == "set":
		if len(inputs) != 4 {
			return nil, fmt.Errorf("unexpected set inputs: %d", len(inputs))
		}
		ints, err := bigInts(inputs[:2], 2)
		if err != nil {
			return nil, err
		}
		fee, err := contracts.AsUint16(inputs[2])
		if err != nil {
			return nil, err
		}
		withUpdate, err := contracts.AsBool(inputs[3])
		if err != nil {
			return nil, err
		}
		return ChefSet{Meta: meta, Pid: ints[0], AllocPoint: ints[1], DepositFeeBP: fee, WithUpdate: withUpdate}, nil
	case family == FamilyMasterChef && method.Name == "updatePool":
		ints, err := bigInts(inputs, 1)
		if err != nil {
			return nil, err
		}
		return ChefUpdatePool{Meta: meta, Pid: ints[0]}, nil
	case family == FamilyMasterChef && method.Name == "massUpdatePools":
		return MassUpdatePools{Meta: meta}, nil
	case method.Name == "transferOwnership":
		owner, err := singleAddress(inputs)
		if err != nil {
			return nil, err
		}
		return TransferOwnership{Meta: meta, NewOwner: owner}, nil
	case family == FamilyFarmFactory && method.Name == "pullRewards":
		output, err := hexutil.Decode(rec.Output)
		if err != nil {
			return nil, fmt.Errorf("invalid output: %w", err)
		}
		values, err := method.Outputs.Unpack(output)
		if err != nil {
			return nil, fmt.Errorf("unpack pullRewards outputs: %w", err)
		}
		ints, err := bigInts(values, 1)
		if err != nil {
			return nil, err
		}
		return PullRewards{Meta: meta, RewardAccumulated: ints[0]}, nil
	case family == FamilyFarmFactory && method.Name == "updateReserveDistributionSchedule":
		ints, err := bigInts(inputs, 1)
		if err != nil {
			return nil, err
		}
		return UpdateReserveDistributionSchedule{Meta: meta, Schedule: ints[0]}, nil
	case family == FamilyFarmFactory && method.Name == "setReserveAddress":
		addr, err := singleAddress(inputs)
		if err != nil {
			return nil, err
		}
		return SetReserveAddress{Meta: meta, Reserve: addr}, nil
	case family == FamilyFarmFactory && method.Name == "setFeeAddress":
		addr, err := singleAddress(inputs)
		if err != nil {
			return nil, err
		}
		return SetFeeAddress{Meta: meta, FeeAddress: addr}, nil
	default:
		return nil, fmt.Errorf("%w: %s %s", ErrUnknownMethod, family, method.Name)
	}
}

func bigInts(values []interface{}, n int) ([]*big.Int, error) {
	if len(values) != n {
		return nil, fmt.Errorf("expected %d values, got %d", n, len(values))
	}
	out := make([]*big.Int, 0, n)
	for _, value := range values {
		v, err := contracts.AsBigInt(value)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func singleAddress(values []interface{}) (common.Address, error) {
	if len(values) != 1 {
		return common.Address{}, fmt.Errorf("expected 1 value, got %d", len(values))
	}
	return contracts.AsAddress(values[0])
}
