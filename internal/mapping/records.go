package mapping

import (
	"moneyScope/internal/model"
	"moneyScope/internal/storage"
)

// record is one replay input: a log or a call.
type record struct {
	log  *model.LogRecord
	call *model.CallRecord
}

func (r record) block() uint64 {
	if r.call != nil {
		return r.call.BlockNumber
	}
	return r.log.BlockNumber
}

func (r record) txIndex() uint64 {
	if r.call != nil {
		return r.call.TxIndex
	}
	return r.log.TxIndex
}

func (r record) index() uint64 {
	if r.call != nil {
		return r.call.CallIndex
	}
	return r.log.LogIndex
}

func (r record) address() string {
	if r.call != nil {
		return r.call.To
	}
	return r.log.Address
}

// before orders records by block then transaction. Within a transaction,
// calls run before the logs they emitted.
func (r record) before(o record) bool {
	if r.block() != o.block() {
		return r.block() < o.block()
	}
	if r.txIndex() != o.txIndex() {
		return r.txIndex() < o.txIndex()
	}
	if (r.call != nil) != (o.call != nil) {
		return r.call != nil
	}
	return r.index() < o.index()
}

// merger interleaves the log and call streams, each already in chain order.
type merger struct {
	logs  *storage.JsonlReader[model.LogRecord]
	calls *storage.JsonlReader[model.CallRecord]

	nextLog  *model.LogRecord
	nextCall *model.CallRecord
	primed   bool
}

func (m *merger) prime() error {
	if m.primed {
		return nil
	}
	m.primed = true
	if err := m.advanceLog(); err != nil {
		return err
	}
	return m.advanceCall()
}

func (m *merger) advanceLog() error {
	m.nextLog = nil
	if m.logs == nil {
		return nil
	}
	rec, ok, err := m.logs.Next()
	if err != nil {
		return err
	}
	if ok {
		m.nextLog = &rec
	}
	return nil
}

func (m *merger) advanceCall() error {
	m.nextCall = nil
	if m.calls == nil {
		return nil
	}
	rec, ok, err := m.calls.Next()
	if err != nil {
		return err
	}
	if ok {
		m.nextCall = &rec
	}
	return nil
}

// Next returns the earliest pending record; ok is false once both streams end.
func (m *merger) Next() (record, bool, error) {
	if err := m.prime(); err != nil {
		return record{}, false, err
	}
	switch {
	case m.nextLog == nil && m.nextCall == nil:
		return record{}, false, nil
	case m.nextCall == nil:
		out := record{log: m.nextLog}
		return out, true, m.advanceLog()
	case m.nextLog == nil:
		out := record{call: m.nextCall}
		return out, true, m.advanceCall()
	}

	logRec, callRec := record{log: m.nextLog}, record{call: m.nextCall}
	if callRec.before(logRec) {
		return callRec, true, m.advanceCall()
	}
	return logRec, true, m.advanceLog()
}
