package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/udisondev/moulgo/internal/wire"
)

// Account is one auth.Accounts row.
type Account struct {
	Login       string
	PassHash    wire.ShaHash
	AcctUuid    wire.Uuid
	AcctFlags   uint32
	BillingType uint32
}

// Player is one auth.Players row.
type Player struct {
	PlayerIdx   uint32
	PlayerName  string
	AvatarShape string
	Explorer    uint32
}

// GetAccount retrieves an account by login (case-insensitive).
// Returns nil, nil if the account does not exist.
func (d *DB) GetAccount(ctx context.Context, login string) (*Account, error) {
	var acc Account
	var passHash, acctUuid string
	err := d.pool.QueryRow(ctx,
		`SELECT "Login", "PassHash", "AcctUuid", "AcctFlags", "BillingType"
		 FROM auth."Accounts" WHERE LOWER("Login") = LOWER($1)`, login,
	).Scan(&acc.Login, &passHash, &acctUuid, &acc.AcctFlags, &acc.BillingType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying account %q: %w", login, err)
	}
	if acc.PassHash, err = wire.ShaFromHex(strings.TrimSpace(passHash)); err != nil {
		return nil, fmt.Errorf("account %q has malformed hash: %w", login, err)
	}
	if acc.AcctUuid, err = wire.ParseUuid(acctUuid); err != nil {
		return nil, fmt.Errorf("account %q has malformed uuid: %w", login, err)
	}
	return &acc, nil
}

// CreateAccount inserts a new account row.
func (d *DB) CreateAccount(ctx context.Context, login string, passHash wire.ShaHash, acctUuid wire.Uuid) error {
	_, err := d.pool.Exec(ctx,
		`INSERT INTO auth."Accounts" ("Login", "PassHash", "AcctUuid")
		 VALUES ($1, $2, $3)`,
		strings.ToLower(login), passHash.String(), acctUuid.String(),
	)
	if err != nil {
		return fmt.Errorf("creating account %q: %w", login, err)
	}
	return nil
}

// ListPlayers returns every player attached to the account.
func (d *DB) ListPlayers(ctx context.Context, acctUuid wire.Uuid) ([]Player, error) {
	rows, err := d.pool.Query(ctx,
		`SELECT "PlayerIdx", "PlayerName", "AvatarShape", "Explorer"
		 FROM auth."Players" WHERE "AcctUuid" = $1`, acctUuid.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("querying players for %s: %w", acctUuid, err)
	}
	defer rows.Close()

	var players []Player
	for rows.Next() {
		var p Player
		if err := rows.Scan(&p.PlayerIdx, &p.PlayerName, &p.AvatarShape, &p.Explorer); err != nil {
			return nil, fmt.Errorf("scanning player row: %w", err)
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading player rows: %w", err)
	}
	return players, nil
}

// GetPlayer returns the player owned by the account, or nil, nil.
func (d *DB) GetPlayer(ctx context.Context, acctUuid wire.Uuid, playerIdx uint32) (*Player, error) {
	var p Player
	p.PlayerIdx = playerIdx
	err := d.pool.QueryRow(ctx,
		`SELECT "PlayerName", "AvatarShape", "Explorer"
		 FROM auth."Players" WHERE "AcctUuid" = $1 AND "PlayerIdx" = $2`,
		acctUuid.String(), playerIdx,
	).Scan(&p.PlayerName, &p.AvatarShape, &p.Explorer)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying player %d: %w", playerIdx, err)
	}
	return &p, nil
}

// PlayerNameTaken reports whether any player already uses name.
func (d *DB) PlayerNameTaken(ctx context.Context, name string) (bool, error) {
	var idx int
	err := d.pool.QueryRow(ctx,
		`SELECT idx FROM auth."Players" WHERE "PlayerName" = $1`, name,
	).Scan(&idx)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("checking player name %q: %w", name, err)
	}
	return true, nil
}

// InsertPlayer records a newly created player.
func (d *DB) InsertPlayer(ctx context.Context, acctUuid wire.Uuid, playerIdx uint32, name, avatarShape string, explorer uint32) error {
	_, err := d.pool.Exec(ctx,
		`INSERT INTO auth."Players"
		 ("AcctUuid", "PlayerIdx", "PlayerName", "AvatarShape", "Explorer")
		 VALUES ($1, $2, $3, $4, $5)`,
		acctUuid.String(), playerIdx, name, avatarShape, explorer,
	)
	if err != nil {
		return fmt.Errorf("inserting player %q: %w", name, err)
	}
	return nil
}
