package domain

import (
	"context"

	"github.com/radieske/stake-predict-platform/pkg/contracts/events"
)

// CreditLedger é o ledger externo de créditos fungíveis.
// Falhas são fatais e não são repetidas dentro da mesma chamada. ref identifica
// a transferência: repetir o mesmo ref para o mesmo pagador não debita de novo.
type CreditLedger interface {
	Mint(ctx context.Context, amount Amount, to Principal) error
	Transfer(ctx context.Context, amount Amount, from, to Principal, ref string) error
}

// CertificationStore é o registro externo de posse das certificações
type CertificationStore interface {
	Issue(ctx context.Context, id CertificationID, owner Principal) error
	// TransferOwnership exige caller == from
	TransferOwnership(ctx context.Context, id CertificationID, from, to Principal) error
}

// HeightSource fornece a altura corrente (monotônica)
type HeightSource interface {
	CurrentHeight() uint64
}

// EventSink recebe notificações append-only; não é necessário para a corretude
type EventSink interface {
	Publish(ctx context.Context, e events.Envelope) error
}
