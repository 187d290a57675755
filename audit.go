// Copyright (C) 2023-2026, Stagecraft Audio, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dawrpc

import (
	"sync/atomic"

	"github.com/rs/zerolog"
)

// auditor emits a sequence-numbered debug trail for every command: start,
// request and response bodies, outcome. With the default Nop logger it costs
// one atomic increment per Send.
type auditor struct {
	log zerolog.Logger
	seq atomic.Uint64
}

func newAuditor(log zerolog.Logger) *auditor {
	return &auditor{log: log}
}

func (a *auditor) started(cmd CommandID) uint64 {
	sn := a.seq.Add(1)
	a.log.Debug().Uint64("sn", sn).Stringer("command", cmd).Msg("command started")
	return sn
}

func (a *auditor) requestBody(sn uint64, cmd CommandID, body string) {
	if body == "" {
		return
	}
	a.log.Debug().Uint64("sn", sn).Stringer("command", cmd).
		RawJSON("request", []byte(body)).Msg("request body")
}

func (a *auditor) responseBody(sn uint64, cmd CommandID, body string) {
	if body == "" {
		a.log.Debug().Uint64("sn", sn).Stringer("command", cmd).Msg("empty response body")
		return
	}
	a.log.Debug().Uint64("sn", sn).Stringer("command", cmd).
		RawJSON("response", []byte(body)).Msg("response body")
}

func (a *auditor) finished(sn uint64, cmd CommandID, err error) {
	if err != nil {
		a.log.Debug().Uint64("sn", sn).Stringer("command", cmd).Err(err).Msg("command failed")
		return
	}
	a.log.Debug().Uint64("sn", sn).Stringer("command", cmd).Msg("command finished")
}
