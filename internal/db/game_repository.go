package db

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/udisondev/moulgo/internal/wire"
)

// GameServer is one game.Servers row; its idx is the ageMcpId clients join.
type GameServer struct {
	Idx         uint32
	AgeUuid     wire.Uuid
	AgeFilename string
	AgeIdx      uint32
	SdlIdx      uint32
}

// AgeState is one persisted per-object SDL blob.
type AgeState struct {
	ObjectKey []byte
	SdlBlob   []byte
}

// GetGameServer loads a server row by idx. Returns nil, nil when absent.
func (d *DB) GetGameServer(ctx context.Context, idx uint32) (*GameServer, error) {
	var srv GameServer
	var ageUuid string
	err := d.pool.QueryRow(ctx,
		`SELECT idx, "AgeUuid", "AgeFilename", "AgeIdx", "SdlIdx"
		 FROM game."Servers" WHERE idx = $1`, idx,
	).Scan(&srv.Idx, &ageUuid, &srv.AgeFilename, &srv.AgeIdx, &srv.SdlIdx)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying game server %d: %w", idx, err)
	}
	if srv.AgeUuid, err = wire.ParseUuid(ageUuid); err != nil {
		return nil, fmt.Errorf("game server %d has malformed uuid: %w", idx, err)
	}
	return &srv, nil
}

// GetGameServerByUuid loads a server row by instance uuid.
func (d *DB) GetGameServerByUuid(ctx context.Context, ageUuid wire.Uuid) (*GameServer, error) {
	var srv GameServer
	err := d.pool.QueryRow(ctx,
		`SELECT idx, "AgeFilename", "AgeIdx", "SdlIdx"
		 FROM game."Servers" WHERE "AgeUuid" = $1`, ageUuid.String(),
	).Scan(&srv.Idx, &srv.AgeFilename, &srv.AgeIdx, &srv.SdlIdx)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying game server %s: %w", ageUuid, err)
	}
	srv.AgeUuid = ageUuid
	return &srv, nil
}

// CreateGameServer inserts a server row and returns its idx.
func (d *DB) CreateGameServer(ctx context.Context, ageUuid wire.Uuid, filename string, ageIdx, sdlIdx uint32) (uint32, error) {
	var idx uint32
	err := d.pool.QueryRow(ctx,
		`INSERT INTO game."Servers" ("AgeUuid", "AgeFilename", "AgeIdx", "SdlIdx")
		 VALUES ($1, $2, $3, $4) RETURNING idx`,
		ageUuid.String(), filename, ageIdx, sdlIdx,
	).Scan(&idx)
	if err != nil {
		return 0, fmt.Errorf("creating game server for %s: %w", filename, err)
	}
	return idx, nil
}

// ListAgeStates returns every persisted per-object SDL state of a server.
func (d *DB) ListAgeStates(ctx context.Context, serverIdx uint32) ([]AgeState, error) {
	rows, err := d.pool.Query(ctx,
		`SELECT "ObjectKey", "SdlBlob" FROM game."AgeStates" WHERE "ServerIdx" = $1`,
		serverIdx,
	)
	if err != nil {
		return nil, fmt.Errorf("querying age states of %d: %w", serverIdx, err)
	}
	defer rows.Close()

	var states []AgeState
	for rows.Next() {
		var objectKey, sdlBlob string
		if err := rows.Scan(&objectKey, &sdlBlob); err != nil {
			return nil, fmt.Errorf("scanning age state row: %w", err)
		}
		var state AgeState
		if state.ObjectKey, err = base64.StdEncoding.DecodeString(objectKey); err != nil {
			return nil, fmt.Errorf("age state of %d has malformed key: %w", serverIdx, err)
		}
		if state.SdlBlob, err = base64.StdEncoding.DecodeString(sdlBlob); err != nil {
			return nil, fmt.Errorf("age state of %d has malformed blob: %w", serverIdx, err)
		}
		states = append(states, state)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading age state rows: %w", err)
	}
	return states, nil
}

// UpsertAgeState stores a per-object SDL blob keyed by (server, object).
func (d *DB) UpsertAgeState(ctx context.Context, serverIdx uint32, objectKey, sdlBlob []byte) error {
	_, err := d.pool.Exec(ctx,
		`INSERT INTO game."AgeStates" ("ServerIdx", "ObjectKey", "SdlBlob")
		 VALUES ($1, $2, $3)
		 ON CONFLICT ("ServerIdx", "ObjectKey") DO UPDATE SET "SdlBlob" = EXCLUDED."SdlBlob"`,
		serverIdx,
		base64.StdEncoding.EncodeToString(objectKey),
		base64.StdEncoding.EncodeToString(sdlBlob),
	)
	if err != nil {
		return fmt.Errorf("storing age state for server %d: %w", serverIdx, err)
	}
	return nil
}
