package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/radieske/stake-predict-platform/internal/domain"
)

// Postgres implementa o ledger de créditos e o registro de certificações
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// Balance retorna o saldo; conta inexistente tem saldo zero
func (p *Postgres) Balance(ctx context.Context, principal domain.Principal) (domain.Amount, error) {
	var bal domain.Amount
	err := p.db.QueryRowContext(ctx, `SELECT balance FROM credit_accounts WHERE principal=$1`, string(principal)).Scan(&bal)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Amount{}, nil
	}
	if err != nil {
		return domain.Amount{}, err
	}
	return bal, nil
}

// lockAccount cria a conta se preciso e trava a linha até o fim da transação
func lockAccount(ctx context.Context, tx *sql.Tx, principal domain.Principal) (domain.Amount, error) {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO credit_accounts(principal) VALUES($1) ON CONFLICT (principal) DO NOTHING`, string(principal)); err != nil {
		return domain.Amount{}, err
	}
	var bal domain.Amount
	if err := tx.QueryRowContext(ctx,
		`SELECT balance FROM credit_accounts WHERE principal=$1 FOR UPDATE`, string(principal)).Scan(&bal); err != nil {
		return domain.Amount{}, err
	}
	return bal, nil
}

func setBalance(ctx context.Context, tx *sql.Tx, principal domain.Principal, bal domain.Amount) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE credit_accounts SET balance=$1, version=version+1, updated_at=now() WHERE principal=$2`, bal, string(principal))
	return err
}

func appendEntry(ctx context.Context, tx *sql.Tx, principal domain.Principal, op string, amount domain.Amount, counterparty domain.Principal, ref string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO credit_ledger(id, principal, operation_type, amount, counterparty, external_ref) VALUES($1,$2,$3,$4,$5,$6)`,
		uuid.New().String(), string(principal), op, amount, nullable(string(counterparty)), nullable(ref))
	return err
}

func nullable(s string) sql.NullString { return sql.NullString{String: s, Valid: s != ""} }

// seen verifica idempotência por (principal, operação, external_ref)
func seen(ctx context.Context, tx *sql.Tx, principal domain.Principal, op, ref string) (bool, error) {
	if ref == "" {
		return false, nil
	}
	var one int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM credit_ledger WHERE principal=$1 AND operation_type=$2 AND external_ref=$3`,
		string(principal), op, ref).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// Mint cria créditos para um principal e devolve o novo saldo.
// Repetir o mesmo externalRef não credita de novo.
func (p *Postgres) Mint(ctx context.Context, to domain.Principal, amount domain.Amount, externalRef string) (domain.Amount, error) {
	if to == "" || amount.IsZero() {
		return domain.Amount{}, domain.ErrInvalidInput
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Amount{}, err
	}
	defer tx.Rollback()

	bal, err := lockAccount(ctx, tx, to)
	if err != nil {
		return domain.Amount{}, err
	}
	dup, err := seen(ctx, tx, to, "MINT", externalRef)
	if err != nil {
		return domain.Amount{}, err
	}
	if dup {
		return bal, tx.Commit()
	}

	if bal, err = bal.Add(amount); err != nil {
		return domain.Amount{}, fmt.Errorf("mint %s: %w", to, err)
	}
	if err = setBalance(ctx, tx, to, bal); err != nil {
		return domain.Amount{}, err
	}
	if err = appendEntry(ctx, tx, to, "MINT", amount, "", externalRef); err != nil {
		return domain.Amount{}, err
	}
	if err = tx.Commit(); err != nil {
		return domain.Amount{}, err
	}
	return bal, nil
}

// Transfer move créditos entre dois principals com lock pessimista nas duas contas.
// As contas são travadas em ordem para evitar deadlock entre transferências cruzadas.
func (p *Postgres) Transfer(ctx context.Context, from, to domain.Principal, amount domain.Amount, externalRef string) error {
	if from == "" || to == "" || amount.IsZero() {
		return domain.ErrInvalidInput
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	first, second := from, to
	if second < first {
		first, second = second, first
	}
	balances := map[domain.Principal]domain.Amount{}
	for _, pr := range []domain.Principal{first, second} {
		if _, ok := balances[pr]; ok {
			continue
		}
		bal, err := lockAccount(ctx, tx, pr)
		if err != nil {
			return err
		}
		balances[pr] = bal
	}

	dup, err := seen(ctx, tx, from, "DEBIT", externalRef)
	if err != nil {
		return err
	}
	if dup {
		return tx.Commit()
	}

	if balances[from].LessThan(amount) {
		return fmt.Errorf("debit %s: %w", from, domain.ErrInsufficientBalance)
	}
	if from != to {
		debited, err := balances[from].Sub(amount)
		if err != nil {
			return err
		}
		credited, err := balances[to].Add(amount)
		if err != nil {
			return fmt.Errorf("credit %s: %w", to, err)
		}
		if err = setBalance(ctx, tx, from, debited); err != nil {
			return err
		}
		if err = setBalance(ctx, tx, to, credited); err != nil {
			return err
		}
	}
	if err = appendEntry(ctx, tx, from, "DEBIT", amount, to, externalRef); err != nil {
		return err
	}
	if err = appendEntry(ctx, tx, to, "CREDIT", amount, from, externalRef); err != nil {
		return err
	}
	return tx.Commit()
}

// IssueCertificate registra a posse inicial de uma certificação. Reemitir o
// mesmo id para o mesmo dono é no-op, assim uma resposta perdida pode ser repetida.
func (p *Postgres) IssueCertificate(ctx context.Context, id domain.CertificationID, owner domain.Principal) error {
	if owner == "" {
		return domain.ErrInvalidInput
	}
	res, err := p.db.ExecContext(ctx,
		`INSERT INTO certification_tokens(id, owner) VALUES($1,$2) ON CONFLICT (id) DO NOTHING`, int64(id), string(owner))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	cur, err := p.Certificate(ctx, id)
	if err != nil {
		return err
	}
	if cur != owner {
		return fmt.Errorf("certification %d: %w", id, domain.ErrAlreadyExists)
	}
	return nil
}

// TransferCertificate exige que from seja o dono atual
func (p *Postgres) TransferCertificate(ctx context.Context, id domain.CertificationID, from, to domain.Principal) error {
	if to == "" {
		return domain.ErrInvalidInput
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var owner string
	err = tx.QueryRowContext(ctx, `SELECT owner FROM certification_tokens WHERE id=$1 FOR UPDATE`, int64(id)).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("certification %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return err
	}
	if domain.Principal(owner) != from {
		return fmt.Errorf("certification %d: %w", id, domain.ErrUnauthorized)
	}
	if _, err = tx.ExecContext(ctx, `UPDATE certification_tokens SET owner=$1, updated_at=now() WHERE id=$2`, string(to), int64(id)); err != nil {
		return err
	}
	return tx.Commit()
}

// Certificate retorna o dono atual
func (p *Postgres) Certificate(ctx context.Context, id domain.CertificationID) (domain.Principal, error) {
	var owner string
	err := p.db.QueryRowContext(ctx, `SELECT owner FROM certification_tokens WHERE id=$1`, int64(id)).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("certification %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return "", err
	}
	return domain.Principal(owner), nil
}
