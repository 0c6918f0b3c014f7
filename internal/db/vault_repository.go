package db

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/udisondev/moulgo/internal/vault"
	"github.com/udisondev/moulgo/internal/wire"
)

// nodeColumn maps each field bit to its column and a pair of accessors.
// get renders the present value as a SQL argument; set applies a scanned
// value back onto a node, marking the presence bit.
type nodeColumn struct {
	field  uint64
	column string
	get    func(n *vault.Node) any
	set    func(n *vault.Node, v any) error
}

func strColumn(field uint64, column string, get func(n *vault.Node) string, set func(n *vault.Node, v string)) nodeColumn {
	return nodeColumn{field, column,
		func(n *vault.Node) any { return get(n) },
		func(n *vault.Node, v any) error {
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("column %s: expected string, got %T", column, v)
			}
			set(n, s)
			return nil
		}}
}

func uuidColumn(field uint64, column string, get func(n *vault.Node) wire.Uuid, set func(n *vault.Node, v wire.Uuid)) nodeColumn {
	return nodeColumn{field, column,
		func(n *vault.Node) any { return get(n).String() },
		func(n *vault.Node, v any) error {
			var raw string
			switch t := v.(type) {
			case string:
				raw = t
			case [16]byte:
				raw = fmt.Sprintf("%x-%x-%x-%x-%x", t[0:4], t[4:6], t[6:8], t[8:10], t[10:16])
			default:
				return fmt.Errorf("column %s: expected uuid, got %T", column, v)
			}
			u, err := wire.ParseUuid(raw)
			if err != nil {
				return fmt.Errorf("column %s: %w", column, err)
			}
			set(n, u)
			return nil
		}}
}

func i32Column(field uint64, column string, get func(n *vault.Node) int32, set func(n *vault.Node, v int32)) nodeColumn {
	return nodeColumn{field, column,
		func(n *vault.Node) any { return get(n) },
		func(n *vault.Node, v any) error {
			switch t := v.(type) {
			case int32:
				set(n, t)
			case int64:
				set(n, int32(t))
			default:
				return fmt.Errorf("column %s: expected int, got %T", column, v)
			}
			return nil
		}}
}

func u32Column(field uint64, column string, get func(n *vault.Node) uint32, set func(n *vault.Node, v uint32)) nodeColumn {
	return nodeColumn{field, column,
		func(n *vault.Node) any { return int64(get(n)) },
		func(n *vault.Node, v any) error {
			switch t := v.(type) {
			case int32:
				set(n, uint32(t))
			case int64:
				set(n, uint32(t))
			default:
				return fmt.Errorf("column %s: expected int, got %T", column, v)
			}
			return nil
		}}
}

func blobColumn(field uint64, column string, get func(n *vault.Node) []byte, set func(n *vault.Node, v []byte)) nodeColumn {
	return nodeColumn{field, column,
		func(n *vault.Node) any { return base64.StdEncoding.EncodeToString(get(n)) },
		func(n *vault.Node, v any) error {
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("column %s: expected string, got %T", column, v)
			}
			raw, err := base64.StdEncoding.DecodeString(s)
			if err != nil {
				return fmt.Errorf("column %s: %w", column, err)
			}
			set(n, raw)
			return nil
		}}
}

// nodeSchema lists every persistable field except NodeIdx, which is the
// generated primary key.
var nodeSchema = []nodeColumn{
	u32Column(vault.FieldCreateTime, "CreateTime", func(n *vault.Node) uint32 { return n.CreateTime }, (*vault.Node).SetCreateTime),
	u32Column(vault.FieldModifyTime, "ModifyTime", func(n *vault.Node) uint32 { return n.ModifyTime }, (*vault.Node).SetModifyTime),
	strColumn(vault.FieldCreateAgeName, "CreateAgeName", func(n *vault.Node) string { return n.CreateAgeName }, (*vault.Node).SetCreateAgeName),
	uuidColumn(vault.FieldCreateAgeUuid, "CreateAgeUuid", func(n *vault.Node) wire.Uuid { return n.CreateAgeUuid }, (*vault.Node).SetCreateAgeUuid),
	uuidColumn(vault.FieldCreatorUuid, "CreatorUuid", func(n *vault.Node) wire.Uuid { return n.CreatorUuid }, (*vault.Node).SetCreatorUuid),
	u32Column(vault.FieldCreatorIdx, "CreatorIdx", func(n *vault.Node) uint32 { return n.CreatorIdx }, (*vault.Node).SetCreatorIdx),
	i32Column(vault.FieldNodeType, "NodeType", func(n *vault.Node) int32 { return n.NodeType }, (*vault.Node).SetNodeType),
	i32Column(vault.FieldInt32_1, "Int32_1", func(n *vault.Node) int32 { return n.Int32_1 }, (*vault.Node).SetInt32_1),
	i32Column(vault.FieldInt32_2, "Int32_2", func(n *vault.Node) int32 { return n.Int32_2 }, (*vault.Node).SetInt32_2),
	i32Column(vault.FieldInt32_3, "Int32_3", func(n *vault.Node) int32 { return n.Int32_3 }, (*vault.Node).SetInt32_3),
	i32Column(vault.FieldInt32_4, "Int32_4", func(n *vault.Node) int32 { return n.Int32_4 }, (*vault.Node).SetInt32_4),
	u32Column(vault.FieldUint32_1, "Uint32_1", func(n *vault.Node) uint32 { return n.Uint32_1 }, (*vault.Node).SetUint32_1),
	u32Column(vault.FieldUint32_2, "Uint32_2", func(n *vault.Node) uint32 { return n.Uint32_2 }, (*vault.Node).SetUint32_2),
	u32Column(vault.FieldUint32_3, "Uint32_3", func(n *vault.Node) uint32 { return n.Uint32_3 }, (*vault.Node).SetUint32_3),
	u32Column(vault.FieldUint32_4, "Uint32_4", func(n *vault.Node) uint32 { return n.Uint32_4 }, (*vault.Node).SetUint32_4),
	uuidColumn(vault.FieldUuid_1, "Uuid_1", func(n *vault.Node) wire.Uuid { return n.Uuid_1 }, (*vault.Node).SetUuid_1),
	uuidColumn(vault.FieldUuid_2, "Uuid_2", func(n *vault.Node) wire.Uuid { return n.Uuid_2 }, (*vault.Node).SetUuid_2),
	uuidColumn(vault.FieldUuid_3, "Uuid_3", func(n *vault.Node) wire.Uuid { return n.Uuid_3 }, (*vault.Node).SetUuid_3),
	uuidColumn(vault.FieldUuid_4, "Uuid_4", func(n *vault.Node) wire.Uuid { return n.Uuid_4 }, (*vault.Node).SetUuid_4),
	strColumn(vault.FieldString64_1, "String64_1", func(n *vault.Node) string { return n.String64_1 }, (*vault.Node).SetString64_1),
	strColumn(vault.FieldString64_2, "String64_2", func(n *vault.Node) string { return n.String64_2 }, (*vault.Node).SetString64_2),
	strColumn(vault.FieldString64_3, "String64_3", func(n *vault.Node) string { return n.String64_3 }, (*vault.Node).SetString64_3),
	strColumn(vault.FieldString64_4, "String64_4", func(n *vault.Node) string { return n.String64_4 }, (*vault.Node).SetString64_4),
	strColumn(vault.FieldString64_5, "String64_5", func(n *vault.Node) string { return n.String64_5 }, (*vault.Node).SetString64_5),
	strColumn(vault.FieldString64_6, "String64_6", func(n *vault.Node) string { return n.String64_6 }, (*vault.Node).SetString64_6),
	strColumn(vault.FieldIString64_1, "IString64_1", func(n *vault.Node) string { return n.IString64_1 }, (*vault.Node).SetIString64_1),
	strColumn(vault.FieldIString64_2, "IString64_2", func(n *vault.Node) string { return n.IString64_2 }, (*vault.Node).SetIString64_2),
	strColumn(vault.FieldText_1, "Text_1", func(n *vault.Node) string { return n.Text_1 }, (*vault.Node).SetText_1),
	strColumn(vault.FieldText_2, "Text_2", func(n *vault.Node) string { return n.Text_2 }, (*vault.Node).SetText_2),
	blobColumn(vault.FieldBlob_1, "Blob_1", func(n *vault.Node) []byte { return n.Blob_1 }, (*vault.Node).SetBlob_1),
	blobColumn(vault.FieldBlob_2, "Blob_2", func(n *vault.Node) []byte { return n.Blob_2 }, (*vault.Node).SetBlob_2),
}

// CreateNode persists exactly the present fields and returns the new idx.
func (d *DB) CreateNode(ctx context.Context, node *vault.Node) (uint32, error) {
	var columns []string
	var placeholders []string
	var args []any
	for _, col := range nodeSchema {
		if node.Has(col.field) {
			columns = append(columns, fmt.Sprintf("%q", col.column))
			placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)+1))
			args = append(args, col.get(node))
		}
	}
	if len(columns) == 0 {
		return 0, fmt.Errorf("creating vault node: no fields present")
	}

	query := fmt.Sprintf(
		`INSERT INTO vault."Nodes" (%s) VALUES (%s) RETURNING idx`,
		strings.Join(columns, ", "), strings.Join(placeholders, ", "),
	)
	var idx uint32
	if err := d.pool.QueryRow(ctx, query, args...).Scan(&idx); err != nil {
		return 0, fmt.Errorf("creating vault node: %w", err)
	}
	return idx, nil
}

// FetchNode loads the full field set of a node. Returns nil, nil when the
// node does not exist.
func (d *DB) FetchNode(ctx context.Context, idx uint32) (*vault.Node, error) {
	columns := make([]string, 0, len(nodeSchema)+1)
	columns = append(columns, "idx")
	for _, col := range nodeSchema {
		columns = append(columns, fmt.Sprintf("%q", col.column))
	}
	query := fmt.Sprintf(`SELECT %s FROM vault."Nodes" WHERE idx = $1`, strings.Join(columns, ", "))

	row := d.pool.QueryRow(ctx, query, idx)
	dest := make([]any, len(nodeSchema)+1)
	var id int32
	dest[0] = &id
	values := make([]*any, len(nodeSchema))
	for i := range nodeSchema {
		var v any
		values[i] = &v
		dest[i+1] = &v
	}
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching vault node %d: %w", idx, err)
	}

	node := &vault.Node{}
	node.SetNodeIdx(uint32(id))
	for i, col := range nodeSchema {
		if *values[i] == nil {
			continue
		}
		if err := col.set(node, *values[i]); err != nil {
			return nil, fmt.Errorf("fetching vault node %d: %w", idx, err)
		}
	}
	return node, nil
}

// UpdateNode applies the present fields of node to its row. The node must
// carry NodeIdx.
func (d *DB) UpdateNode(ctx context.Context, node *vault.Node) error {
	if !node.Has(vault.FieldNodeIdx) {
		return fmt.Errorf("updating vault node: no NodeIdx present")
	}
	var sets []string
	var args []any
	for _, col := range nodeSchema {
		if node.Has(col.field) {
			sets = append(sets, fmt.Sprintf("%q = $%d", col.column, len(args)+1))
			args = append(args, col.get(node))
		}
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, node.NodeIdx)
	query := fmt.Sprintf(`UPDATE vault."Nodes" SET %s WHERE idx = $%d`,
		strings.Join(sets, ", "), len(args))
	if _, err := d.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("updating vault node %d: %w", node.NodeIdx, err)
	}
	return nil
}

// FindNodes returns the ids of nodes whose columns equal every present
// field of the template.
func (d *DB) FindNodes(ctx context.Context, template *vault.Node) ([]uint32, error) {
	var wheres []string
	var args []any
	for _, col := range nodeSchema {
		if template.Has(col.field) {
			wheres = append(wheres, fmt.Sprintf("%q = $%d", col.column, len(args)+1))
			args = append(args, col.get(template))
		}
	}
	if template.Has(vault.FieldNodeIdx) {
		wheres = append(wheres, fmt.Sprintf("idx = $%d", len(args)+1))
		args = append(args, template.NodeIdx)
	}
	if len(wheres) == 0 {
		return nil, fmt.Errorf("finding vault nodes: empty template")
	}

	query := fmt.Sprintf(`SELECT idx FROM vault."Nodes" WHERE %s`, strings.Join(wheres, " AND "))
	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("finding vault nodes: %w", err)
	}
	defer rows.Close()

	var ids []uint32
	for rows.Next() {
		var idx uint32
		if err := rows.Scan(&idx); err != nil {
			return nil, fmt.Errorf("finding vault nodes: %w", err)
		}
		ids = append(ids, idx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("finding vault nodes: %w", err)
	}
	return ids, nil
}

// RefNode adds a directed edge, idempotently.
func (d *DB) RefNode(ctx context.Context, parent, child, owner uint32) error {
	_, err := d.pool.Exec(ctx,
		`INSERT INTO vault."NodeRefs" ("ParentIdx", "ChildIdx", "OwnerIdx")
		 VALUES ($1, $2, $3)
		 ON CONFLICT ("ParentIdx", "ChildIdx") DO NOTHING`,
		parent, child, owner,
	)
	if err != nil {
		return fmt.Errorf("ref node %d->%d: %w", parent, child, err)
	}
	return nil
}

// UnrefNode removes a directed edge. Removing the last parent never deletes
// the child; disconnected nodes are legal.
func (d *DB) UnrefNode(ctx context.Context, parent, child uint32) error {
	_, err := d.pool.Exec(ctx,
		`DELETE FROM vault."NodeRefs" WHERE "ParentIdx" = $1 AND "ChildIdx" = $2`,
		parent, child,
	)
	if err != nil {
		return fmt.Errorf("unref node %d->%d: %w", parent, child, err)
	}
	return nil
}

// ChildRefs returns the outgoing edges of parent.
func (d *DB) ChildRefs(ctx context.Context, parent uint32) ([]vault.NodeRef, error) {
	rows, err := d.pool.Query(ctx,
		`SELECT "ParentIdx", "ChildIdx", "OwnerIdx", "Seen"
		 FROM vault."NodeRefs" WHERE "ParentIdx" = $1`, parent,
	)
	if err != nil {
		return nil, fmt.Errorf("querying refs of %d: %w", parent, err)
	}
	defer rows.Close()

	var refs []vault.NodeRef
	for rows.Next() {
		var ref vault.NodeRef
		var seen int16
		if err := rows.Scan(&ref.Parent, &ref.Child, &ref.Owner, &seen); err != nil {
			return nil, fmt.Errorf("scanning ref row: %w", err)
		}
		ref.Seen = uint8(seen)
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading ref rows: %w", err)
	}
	return refs, nil
}

// FetchNodeTree returns every edge reachable from root. A visited set keeps
// traversal cycle-safe.
func (d *DB) FetchNodeTree(ctx context.Context, root uint32) ([]vault.NodeRef, error) {
	visited := map[uint32]bool{root: true}
	queue := []uint32{root}
	var all []vault.NodeRef

	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]

		refs, err := d.ChildRefs(ctx, parent)
		if err != nil {
			return nil, err
		}
		for _, ref := range refs {
			all = append(all, ref)
			if !visited[ref.Child] {
				visited[ref.Child] = true
				queue = append(queue, ref.Child)
			}
		}
	}
	return all, nil
}

// FindNodesByType returns the ids of all nodes of the given type.
func (d *DB) FindNodesByType(ctx context.Context, nodeType int32) ([]uint32, error) {
	template := &vault.Node{}
	template.SetNodeType(nodeType)
	return d.FindNodes(ctx, template)
}
