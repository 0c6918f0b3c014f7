package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/udisondev/moulgo/internal/vault"
	"github.com/udisondev/moulgo/internal/wire"
)

// initVault establishes the global invariant: exactly one System node with a
// GlobalInbox folder ref-linked to it. Repeated startups reuse the existing
// nodes.
func (d *Daemon) initVault(ctx context.Context) error {
	found, err := d.db.FindNodesByType(ctx, vault.NodeSystem)
	if err != nil {
		return fmt.Errorf("init vault: %w", err)
	}
	switch len(found) {
	case 0:
		now := uint32(time.Now().Unix())

		system := &vault.Node{}
		system.SetNodeType(vault.NodeSystem)
		system.SetCreateTime(now)
		system.SetModifyTime(now)
		systemIdx, err := d.db.CreateNode(ctx, system)
		if err != nil {
			return fmt.Errorf("init vault: creating system node: %w", err)
		}

		inbox := &vault.Node{}
		inbox.SetNodeType(vault.NodeFolder)
		inbox.SetCreateTime(now)
		inbox.SetModifyTime(now)
		inbox.SetInt32_1(vault.GlobalInboxFolder)
		inboxIdx, err := d.db.CreateNode(ctx, inbox)
		if err != nil {
			return fmt.Errorf("init vault: creating global inbox: %w", err)
		}

		if err := d.db.RefNode(ctx, systemIdx, inboxIdx, 0); err != nil {
			return fmt.Errorf("init vault: linking global inbox: %w", err)
		}
		d.systemNode = systemIdx
		d.log.Info("vault initialized", "system", systemIdx, "globalInbox", inboxIdx)
	case 1:
		d.systemNode = found[0]
	default:
		return fmt.Errorf("init vault: %d system nodes present", len(found))
	}
	return nil
}

// newNode stamps a node with creation metadata.
func newNode(nodeType int32, creator wire.Uuid, creatorIdx uint32) *vault.Node {
	now := uint32(time.Now().Unix())
	node := &vault.Node{}
	node.SetNodeType(nodeType)
	node.SetCreateTime(now)
	node.SetModifyTime(now)
	if !creator.IsNull() {
		node.SetCreatorUuid(creator)
	}
	if creatorIdx != 0 {
		node.SetCreatorIdx(creatorIdx)
	}
	return node
}

// createAndRef persists node and links it under parent.
func (d *Daemon) createAndRef(ctx context.Context, node *vault.Node, parent, owner uint32) (uint32, error) {
	idx, err := d.db.CreateNode(ctx, node)
	if err != nil {
		return 0, err
	}
	if parent != 0 {
		if err := d.db.RefNode(ctx, parent, idx, owner); err != nil {
			return 0, err
		}
	}
	return idx, nil
}

// createPlayerVault builds the player node and its standard subgraph:
// PlayerInfo plus the folders every avatar carries. Returns the player node
// id, which doubles as the player id.
func (d *Daemon) createPlayerVault(ctx context.Context, playerUuid wire.Uuid, name, shape string, explorer bool) (uint32, error) {
	player := newNode(vault.NodePlayer, playerUuid, 0)
	player.SetUuid_1(playerUuid)
	player.SetIString64_1(name)
	player.SetString64_1(shape)
	if explorer {
		player.SetInt32_2(1)
	} else {
		player.SetInt32_2(0)
	}
	playerIdx, err := d.db.CreateNode(ctx, player)
	if err != nil {
		return 0, fmt.Errorf("creating player node: %w", err)
	}

	info := newNode(vault.NodePlayerInfo, playerUuid, playerIdx)
	info.SetUint32_1(playerIdx)
	info.SetIString64_1(name)
	if _, err := d.createAndRef(ctx, info, playerIdx, playerIdx); err != nil {
		return 0, fmt.Errorf("creating player info: %w", err)
	}

	folders := []int32{
		vault.InboxFolder,
		vault.BuddyListFolder,
		vault.IgnoreListFolder,
		vault.PeopleIKnowAboutFolder,
		vault.ChronicleFolder,
		vault.AvatarOutfitFolder,
		vault.AvatarClosetFolder,
		vault.AgeJournalsFolder,
		vault.AgesIOwnFolder,
		vault.AgesICanVisitFolder,
		vault.PlayerInviteFolder,
	}
	for _, folderType := range folders {
		nodeType := vault.NodeFolder
		switch folderType {
		case vault.BuddyListFolder, vault.IgnoreListFolder, vault.PeopleIKnowAboutFolder:
			nodeType = vault.NodePlayerInfoList
		case vault.AgesIOwnFolder, vault.AgesICanVisitFolder:
			nodeType = vault.NodeAgeInfoList
		}
		folder := newNode(nodeType, playerUuid, playerIdx)
		folder.SetInt32_1(folderType)
		if _, err := d.createAndRef(ctx, folder, playerIdx, playerIdx); err != nil {
			return 0, fmt.Errorf("creating player folder %d: %w", folderType, err)
		}
	}
	return playerIdx, nil
}

// initAge creates the vault subgraph of an age instance, or reuses an
// existing instance with the same uuid. Returns (ageNode, ageInfoNode).
func (d *Daemon) initAge(ctx context.Context, req *InitAgeRequest) (uint32, uint32, error) {
	// Find-by-uuid keeps repeated init calls idempotent.
	template := &vault.Node{}
	template.SetNodeType(vault.NodeAge)
	template.SetUuid_1(req.InstanceUuid)
	existing, err := d.db.FindNodes(ctx, template)
	if err != nil {
		return 0, 0, fmt.Errorf("init age: %w", err)
	}
	if len(existing) > 0 {
		ageIdx := existing[0]
		infoTemplate := &vault.Node{}
		infoTemplate.SetNodeType(vault.NodeAgeInfo)
		infoTemplate.SetUuid_1(req.InstanceUuid)
		infos, err := d.db.FindNodes(ctx, infoTemplate)
		if err != nil || len(infos) == 0 {
			return 0, 0, fmt.Errorf("init age: instance %s has no info node", req.InstanceUuid)
		}
		return ageIdx, infos[0], nil
	}

	age := newNode(vault.NodeAge, req.InstanceUuid, 0)
	age.SetUuid_1(req.InstanceUuid)
	if !req.ParentUuid.IsNull() {
		age.SetUuid_2(req.ParentUuid)
	}
	age.SetString64_1(req.Filename)
	ageIdx, err := d.db.CreateNode(ctx, age)
	if err != nil {
		return 0, 0, fmt.Errorf("init age: creating age node: %w", err)
	}

	info := newNode(vault.NodeAgeInfo, req.InstanceUuid, ageIdx)
	info.SetInt32_1(req.SeqNumber)
	info.SetInt32_2(0) // not public
	info.SetInt32_3(req.Language)
	info.SetUint32_1(ageIdx)
	info.SetUuid_1(req.InstanceUuid)
	if !req.ParentUuid.IsNull() {
		info.SetUuid_2(req.ParentUuid)
	}
	info.SetString64_2(req.Filename)
	if req.InstanceName != "" {
		info.SetString64_3(req.InstanceName)
	}
	if req.UserName != "" {
		info.SetString64_4(req.UserName)
	}
	if req.Description != "" {
		info.SetText_1(req.Description)
	}
	infoIdx, err := d.createAndRef(ctx, info, ageIdx, 0)
	if err != nil {
		return 0, 0, fmt.Errorf("init age: creating age info: %w", err)
	}

	// Standard age folders and the instance SDL node.
	folders := []struct {
		nodeType int32
		folder   int32
	}{
		{vault.NodeFolder, vault.ChronicleFolder},
		{vault.NodePlayerInfoList, vault.PeopleIKnowAboutFolder},
		{vault.NodeFolder, vault.SubAgesFolder},
		{vault.NodeFolder, vault.AgeDevicesFolder},
	}
	for _, f := range folders {
		folder := newNode(f.nodeType, req.InstanceUuid, ageIdx)
		folder.SetInt32_1(f.folder)
		if _, err := d.createAndRef(ctx, folder, ageIdx, 0); err != nil {
			return 0, 0, fmt.Errorf("init age: creating folder %d: %w", f.folder, err)
		}
	}

	sdlNode := newNode(vault.NodeSDL, req.InstanceUuid, ageIdx)
	sdlNode.SetInt32_1(vault.AgeInstanceSDLNode)
	sdlNode.SetString64_1(req.Filename)
	sdlNode.SetBlob_1(nil)
	if _, err := d.createAndRef(ctx, sdlNode, infoIdx, 0); err != nil {
		return 0, 0, fmt.Errorf("init age: creating sdl node: %w", err)
	}

	ownersFolder := newNode(vault.NodePlayerInfoList, req.InstanceUuid, ageIdx)
	ownersFolder.SetInt32_1(vault.AgeOwnersFolder)
	if _, err := d.createAndRef(ctx, ownersFolder, infoIdx, 0); err != nil {
		return 0, 0, fmt.Errorf("init age: creating owners folder: %w", err)
	}
	visitorsFolder := newNode(vault.NodePlayerInfoList, req.InstanceUuid, ageIdx)
	visitorsFolder.SetInt32_1(vault.CanVisitFolder)
	if _, err := d.createAndRef(ctx, visitorsFolder, infoIdx, 0); err != nil {
		return 0, 0, fmt.Errorf("init age: creating visitors folder: %w", err)
	}

	d.log.Info("age initialized", "filename", req.Filename, "uuid", req.InstanceUuid.String(), "age", ageIdx, "info", infoIdx)
	return ageIdx, infoIdx, nil
}

// findAgeSdlNode locates the instance SDL node under an age info node.
func (d *Daemon) findAgeSdlNode(ctx context.Context, infoIdx uint32) (uint32, error) {
	refs, err := d.db.ChildRefs(ctx, infoIdx)
	if err != nil {
		return 0, err
	}
	for _, ref := range refs {
		node, err := d.db.FetchNode(ctx, ref.Child)
		if err != nil {
			return 0, err
		}
		if node != nil && node.NodeType == vault.NodeSDL {
			return node.NodeIdx, nil
		}
	}
	return 0, nil
}
