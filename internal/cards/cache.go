// internal/cards/cache.go
//
// SQLite-backed card cache. Lightweight metadata lives in the cards
// table and is the only thing bulk reads touch; heavy image payloads are
// compressed once on Put and stored in the card_images blob table, keyed
// by card id, loaded strictly on demand.

package cards

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/whoamaiii/jenjenmonster/internal/imaging"
)

// ErrNotFound reports a missing card id.
var ErrNotFound = errors.New("cards: not found")

// Cache is the content-addressed card store.
type Cache struct {
	db        *sql.DB
	onPersist func(cardID string)
}

// NewCache constructs a Cache over the cards/card_images tables.
func NewCache(db *sql.DB) *Cache {
	return &Cache{db: db}
}

// OnImagePersisted registers a callback fired after a card's payload is
// written, so metadata-only consumers stop treating it as payload-less.
func (c *Cache) OnImagePersisted(fn func(cardID string)) {
	c.onPersist = fn
}

// Put upserts a card. An attached raw payload is compressed and written
// to the blob table; on return the card carries only metadata plus the
// persisted marker — the raw payload is not retained.
func (c *Cache) Put(ctx context.Context, card *Card) error {
	persistImage := len(card.Image) > 0
	var blob []byte
	if persistImage {
		var err error
		blob, err = imaging.Compress(card.Image)
		if err != nil {
			return fmt.Errorf("compress card art: %w", err)
		}
	}

	moves, err := json.Marshal(card.Moves)
	if err != nil {
		return fmt.Errorf("marshal moves: %w", err)
	}
	if card.CreatedAt.IsZero() {
		card.CreatedAt = time.Now().UTC()
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
        INSERT INTO cards (id, owner, name, type, hp, rarity, flavor, moves,
                           art_prompt, shiny, image_persisted, created_at)
        VALUES (?,?,?,?,?,?,?,?,?,?,?,?)
        ON CONFLICT(id) DO UPDATE SET
            name=excluded.name, type=excluded.type, hp=excluded.hp,
            rarity=excluded.rarity, flavor=excluded.flavor,
            moves=excluded.moves, art_prompt=excluded.art_prompt,
            shiny=excluded.shiny, image_persisted=excluded.image_persisted`,
		card.ID, card.Owner, card.Name, card.Type, card.HP, string(card.Rarity),
		card.Flavor, string(moves), card.ArtPrompt, card.Shiny,
		card.ImagePersisted || persistImage,
		card.CreatedAt.Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("upsert card: %w", err)
	}

	if persistImage {
		if _, err := tx.ExecContext(ctx, `
            INSERT INTO card_images (card_id, data) VALUES (?,?)
            ON CONFLICT(card_id) DO UPDATE SET data=excluded.data`,
			card.ID, blob,
		); err != nil {
			return fmt.Errorf("upsert card image: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	card.Image = nil
	if persistImage {
		card.ImagePersisted = true
		if c.onPersist != nil {
			c.onPersist(card.ID)
		}
	}
	return nil
}

// GetFull fetches metadata plus the compressed payload (if persisted).
func (c *Cache) GetFull(ctx context.Context, id string) (*Card, error) {
	card, err := c.getMeta(ctx, id)
	if err != nil {
		return nil, err
	}
	if card.ImagePersisted {
		data, err := c.ImageData(ctx, id)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		card.Image = data
	}
	return card, nil
}

// ImageData fetches only the compressed payload blob.
func (c *Cache) ImageData(ctx context.Context, id string) ([]byte, error) {
	var data []byte
	err := c.db.QueryRowContext(ctx,
		`SELECT data FROM card_images WHERE card_id=?`, id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return data, err
}

// ListMetadata returns every card of an owner with payloads represented
// only by the persisted marker. This is the sole bulk-read path; it never
// touches the blob table, so memory stays bounded regardless of
// collection size.
func (c *Cache) ListMetadata(ctx context.Context, owner string) ([]*Card, error) {
	rows, err := c.db.QueryContext(ctx, `
        SELECT id, owner, name, type, hp, rarity, flavor, moves,
               art_prompt, shiny, image_persisted, created_at
        FROM cards WHERE owner=? ORDER BY id ASC`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*Card{}
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, card)
	}
	return out, rows.Err()
}

// DeleteMany removes a batch of cards and their payloads in one
// transaction — all-or-nothing from the caller's perspective.
func (c *Cache) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM card_images WHERE card_id IN (`+placeholders+`)`, args...,
	); err != nil {
		return fmt.Errorf("delete images: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM cards WHERE id IN (`+placeholders+`)`, args...,
	); err != nil {
		return fmt.Errorf("delete cards: %w", err)
	}
	return tx.Commit()
}

func (c *Cache) getMeta(ctx context.Context, id string) (*Card, error) {
	row := c.db.QueryRowContext(ctx, `
        SELECT id, owner, name, type, hp, rarity, flavor, moves,
               art_prompt, shiny, image_persisted, created_at
        FROM cards WHERE id=?`, id)
	card, err := scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return card, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (*Card, error) {
	var card Card
	var rarity, moves, created string
	if err := row.Scan(&card.ID, &card.Owner, &card.Name, &card.Type, &card.HP,
		&rarity, &card.Flavor, &moves, &card.ArtPrompt, &card.Shiny,
		&card.ImagePersisted, &created); err != nil {
		return nil, err
	}
	card.Rarity = Rarity(rarity)
	if err := json.Unmarshal([]byte(moves), &card.Moves); err != nil {
		card.Moves = nil
	}
	card.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &card, nil
}
