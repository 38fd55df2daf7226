// Copyright (C) 2024  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package zparcel implements the ZParcel single-file embedded object
// store: a UUID-keyed binary search tree of typed object descriptors,
// a free-space allocator over a byte device's extent, and typed
// read/write accessors, including a streaming accessor for large
// payloads.
package zparcel

import (
	"context"
	"io"
	"math"

	lru "github.com/hashicorp/golang-lru"
	"github.com/google/uuid"

	"go.zparcel.dev/zparcel/lib/diskio"
)

// descriptorCacheSize bounds the UUID→descriptor cache (spec.md
// §4.5's "descriptor cache"), per SPEC_FULL.md §2 item 11: a bounded
// LRU rather than the original's unbounded map, so a long-lived
// process doesn't leak memory one entry per ever-seen UUID.
const descriptorCacheSize = 4096

type cacheEntry struct {
	offset uint64
	node   *treeNode
}

// Parcel is a single open ZParcel object store. It is not safe for
// concurrent use (spec.md §5) — callers needing concurrent access must
// serialize their own calls.
type Parcel struct {
	dev       diskio.Device
	hdr       *header
	cache     *lru.Cache
	freeCount uint64
	open      bool
	ctx       context.Context
}

// Create formats a fresh parcel on dev: a superblock with tail-extend
// enabled, an empty tree, and a single free node covering
// [HeaderSize, 4096), matching spec.md §6's "after formatting, the
// tail pointer is 4096" and end-to-end scenario 1 in §8.
func Create(ctx context.Context, dev diskio.Device) (*Parcel, error) {
	const op = "create"

	h := &header{
		flags:    flagTailExtend,
		treeHead: offsetNone,
		freeHead: HeaderSize,
		freeTail: HeaderSize,
		tailPtr:  initialTailPtr,
	}
	fn := &freeNode{next: offsetNone, size: initialTailPtr - HeaderSize}
	if err := fn.write(dev, HeaderSize); err != nil {
		return nil, err
	}
	if err := h.write(dev); err != nil {
		return nil, newErr(op, CodeWrite, err)
	}

	cache, err := lru.New(descriptorCacheSize)
	if err != nil {
		return nil, newErr(op, CodeOpen, err)
	}
	dlogDebugf(ctx, "zparcel: created parcel, tail=%d", h.tailPtr)
	return &Parcel{dev: dev, hdr: h, cache: cache, freeCount: 1, open: true, ctx: ctx}, nil
}

// Open reads an existing parcel's superblock off dev and validates its
// free list, per spec.md §4.6's Closed→Open transition.
func Open(ctx context.Context, dev diskio.Device) (*Parcel, error) {
	const op = "open"

	h, err := readHeader(dev)
	if err != nil {
		return nil, err
	}
	p := &Parcel{dev: dev, hdr: h, open: true, ctx: ctx}

	count, err := p.countFreeNodes()
	if err != nil {
		return nil, err
	}
	p.freeCount = count

	cache, err := lru.New(descriptorCacheSize)
	if err != nil {
		return nil, newErr(op, CodeOpen, err)
	}
	p.cache = cache
	dlogDebugf(ctx, "zparcel: opened parcel, tree_head=%#x free_nodes=%d", h.treeHead, count)
	return p, nil
}

// Close transitions the parcel Open→Closed and releases the
// underlying device.
func (p *Parcel) Close() error {
	if !p.open {
		return newErr("close", CodeNotOpen, nil)
	}
	p.open = false
	return p.dev.Close()
}

func (p *Parcel) requireOpen(op string) error {
	if !p.open {
		return newErr(op, CodeNotOpen, nil)
	}
	return nil
}

// lookupLive resolves uuid to its tree node, consulting the
// descriptor cache first (spec.md §4.5), treating a tombstoned
// (null-typed) node the same as absent.
func (p *Parcel) lookupLive(op string, id uuid.UUID) (uint64, *treeNode, error) {
	if v, ok := p.cache.Get(id); ok {
		entry := v.(*cacheEntry)
		if entry.node.typ == TypeNull {
			return 0, nil, newErr(op, CodeNoExist, nil)
		}
		return entry.offset, entry.node, nil
	}

	offset, node, err := p.treeLookup(id)
	if err != nil {
		return 0, nil, err
	}
	p.cache.Add(id, &cacheEntry{offset: offset, node: node})
	if node.typ == TypeNull {
		return 0, nil, newErr(op, CodeNoExist, nil)
	}
	return offset, node, nil
}

func (p *Parcel) invalidate(id uuid.UUID) { p.cache.Remove(id) }

// Exists reports whether id names a live (non-tombstoned) object.
func (p *Parcel) Exists(id uuid.UUID) bool {
	_, _, err := p.lookupLive("exists", id)
	return err == nil
}

// GetType returns the type of a live object.
func (p *Parcel) GetType(id uuid.UUID) (ObjType, error) {
	if err := p.requireOpen("get_type"); err != nil {
		return TypeNull, err
	}
	_, node, err := p.lookupLive("get_type", id)
	if err != nil {
		return TypeNull, err
	}
	return node.typ, nil
}

// Descriptor is a public summary of a stored object, used by
// administrative tooling (the CLI's show subcommand) that needs more
// than just the type tag.
type Descriptor struct {
	UUID  uuid.UUID
	Type  ObjType
	Extra uint8
	// Size is the payload size: 16 for inline types (the fixed inline
	// slot), or the external extent's logical (non-slack) size.
	Size uint64
}

// Describe returns a human-facing summary of a live object.
func (p *Parcel) Describe(id uuid.UUID) (Descriptor, error) {
	if err := p.requireOpen("describe"); err != nil {
		return Descriptor{}, err
	}
	_, node, err := p.lookupLive("describe", id)
	if err != nil {
		return Descriptor{}, err
	}
	d := Descriptor{UUID: id, Type: node.typ, Extra: node.extra, Size: 16}
	if node.typ.isExternal() {
		_, size := decodeExternalPointer(node)
		d.Size = size
	}
	return d, nil
}

// SetRoot persists id as the parcel's well-known root UUID. Passing
// uuid.Nil clears it.
func (p *Parcel) SetRoot(id uuid.UUID) error {
	if err := p.requireOpen("set_root"); err != nil {
		return err
	}
	if id != uuid.Nil {
		if !p.Exists(id) {
			return newErr("set_root", CodeNoExist, nil)
		}
	}
	p.hdr.rootUUID = id
	return p.hdr.write(p.dev)
}

// GetRoot returns the parcel's root UUID, or uuid.Nil if unset.
func (p *Parcel) GetRoot() (uuid.UUID, error) {
	if err := p.requireOpen("get_root"); err != nil {
		return uuid.Nil, err
	}
	return p.hdr.rootUUID, nil
}

// Remove tombstones id and frees its data extent, if any.
func (p *Parcel) Remove(id uuid.UUID) error {
	if err := p.requireOpen("remove"); err != nil {
		return err
	}
	offset, node, err := p.lookupLive("remove", id)
	if err != nil {
		return err
	}
	if err := p.treeTombstone(offset, node); err != nil {
		return err
	}
	p.invalidate(id)
	return nil
}

// ListEntry is one row of a List traversal.
type ListEntry struct {
	UUID  uuid.UUID
	Type  ObjType
	Depth int
}

// List performs a pre-order traversal of the tree from tree_head,
// including tombstoned entries, bounded to maxTreeDepth (spec.md
// §4.5).
func (p *Parcel) List() ([]ListEntry, error) {
	if err := p.requireOpen("list"); err != nil {
		return nil, err
	}
	var out []ListEntry
	var walk func(offset uint64, depth int) error
	walk = func(offset uint64, depth int) error {
		if offset == offsetNone {
			return nil
		}
		if depth >= maxTreeDepth {
			return newErr("list", CodeMaxDepth, nil)
		}
		node, err := readTreeNode(p.dev, offset)
		if err != nil {
			return err
		}
		out = append(out, ListEntry{UUID: node.uuid, Type: node.typ, Depth: depth})
		if err := walk(node.lnode, depth+1); err != nil {
			return err
		}
		return walk(node.rnode, depth+1)
	}
	if err := walk(p.hdr.treeHead, 0); err != nil {
		return nil, err
	}
	return out, nil
}

// --- inline-type store/fetch -----------------------------------------

func (p *Parcel) storeInline(op string, id uuid.UUID, typ ObjType, inline [16]byte) error {
	if err := p.requireOpen(op); err != nil {
		return err
	}
	// Check for a duplicate UUID before allocating anything, so a
	// rejected store (Exists) never orphans an extent (spec.md §3,
	// §8 invariant 2).
	if err := p.treeExists(op, id); err != nil {
		return err
	}
	nodeOffset, granted, err := p.alloc(TreeNodeSize)
	if err != nil {
		return err
	}
	n := &treeNode{
		uuid:   id,
		lnode:  offsetNone,
		rnode:  offsetNone,
		typ:    typ,
		extra:  slackByte(granted - TreeNodeSize),
		inline: inline,
	}
	if err := n.write(p.dev, nodeOffset); err != nil {
		return err
	}
	if err := p.treeInsert(id, nodeOffset); err != nil {
		return err
	}
	p.invalidate(id)
	return nil
}

func (p *Parcel) fetchInline(op string, id uuid.UUID, want ObjType) ([16]byte, error) {
	var zero [16]byte
	if err := p.requireOpen(op); err != nil {
		return zero, err
	}
	_, node, err := p.lookupLive(op, id)
	if err != nil {
		return zero, err
	}
	if node.typ != want {
		return zero, newErr(op, CodeType, nil)
	}
	return node.inline, nil
}

// StoreNull stores a typeless null object under id.
func (p *Parcel) StoreNull(id uuid.UUID) error {
	return p.storeInline("store.null", id, TypeNull, [16]byte{})
}

// StoreBool stores a boolean value under id.
func (p *Parcel) StoreBool(id uuid.UUID, v bool) error {
	var inline [16]byte
	if v {
		inline[0] = 1
	}
	return p.storeInline("store.bool", id, TypeBool, inline)
}

// FetchBool fetches a previously stored boolean value.
func (p *Parcel) FetchBool(id uuid.UUID) (bool, error) {
	inline, err := p.fetchInline("fetch.bool", id, TypeBool)
	if err != nil {
		return false, err
	}
	return inline[0] != 0, nil
}

// StoreUint stores an unsigned 64-bit value under id.
func (p *Parcel) StoreUint(id uuid.UUID, v uint64) error {
	var inline [16]byte
	putBEU64(inline[0:8], v)
	return p.storeInline("store.uint", id, TypeUint, inline)
}

// FetchUint fetches a previously stored unsigned 64-bit value.
func (p *Parcel) FetchUint(id uuid.UUID) (uint64, error) {
	inline, err := p.fetchInline("fetch.uint", id, TypeUint)
	if err != nil {
		return 0, err
	}
	return beU64(inline[0:8]), nil
}

// StoreSint stores a signed 64-bit value under id.
func (p *Parcel) StoreSint(id uuid.UUID, v int64) error {
	var inline [16]byte
	putBEU64(inline[0:8], uint64(v))
	return p.storeInline("store.sint", id, TypeSint, inline)
}

// FetchSint fetches a previously stored signed 64-bit value.
func (p *Parcel) FetchSint(id uuid.UUID) (int64, error) {
	inline, err := p.fetchInline("fetch.sint", id, TypeSint)
	if err != nil {
		return 0, err
	}
	return int64(beU64(inline[0:8])), nil
}

// StoreFloat stores a 64-bit IEEE-754 value under id.
func (p *Parcel) StoreFloat(id uuid.UUID, v float64) error {
	var inline [16]byte
	putBEU64(inline[0:8], math.Float64bits(v))
	return p.storeInline("store.float", id, TypeFloat, inline)
}

// FetchFloat fetches a previously stored 64-bit float value.
func (p *Parcel) FetchFloat(id uuid.UUID) (float64, error) {
	inline, err := p.fetchInline("fetch.float", id, TypeFloat)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(beU64(inline[0:8])), nil
}

// StoreUUID stores a UUID value under id.
func (p *Parcel) StoreUUID(id uuid.UUID, v uuid.UUID) error {
	var inline [16]byte
	copy(inline[:], v[:])
	return p.storeInline("store.uuid", id, TypeUUID, inline)
}

// FetchUUID fetches a previously stored UUID value.
func (p *Parcel) FetchUUID(id uuid.UUID) (uuid.UUID, error) {
	inline, err := p.fetchInline("fetch.uuid", id, TypeUUID)
	if err != nil {
		return uuid.Nil, err
	}
	var v uuid.UUID
	copy(v[:], inline[:])
	return v, nil
}

// slackByte caps a computed allocator slack value to the 8-bit extra
// field's range (Open Question 3; see SPEC_FULL.md §9). The allocator
// never actually grants more than FreeNodeSize-1 bytes of slack for a
// request this code ever makes, so the cap below is a belt-and-braces
// guard, not a load-bearing behavior.
func slackByte(v uint64) uint8 {
	if v > math.MaxUint8 {
		return math.MaxUint8
	}
	return uint8(v)
}

// --- external-type store/fetch ---------------------------------------

func decodeExternalPointer(n *treeNode) (offset, size uint64) {
	return beU64(n.inline[0:8]), beU64(n.inline[8:16])
}

func encodeExternalPointer(offset, size uint64) [16]byte {
	var inline [16]byte
	putBEU64(inline[0:8], offset)
	putBEU64(inline[8:16], size)
	return inline
}

// allocExternalNode allocates a tree node and a data extent of at
// least logicalSize bytes (any allocator slack is recorded in the
// node's extra field) and links the node into the tree, returning a
// Stream over the first logicalSize bytes of the data extent for the
// caller to fill separately. Per spec.md §4.5 and §4.7 (and Open Question 4), once
// the node is linked a failure to fill the extent leaves it allocated
// but incompletely written; there is no rollback.
func (p *Parcel) allocExternalNode(op string, id uuid.UUID, typ ObjType, logicalSize uint64) (*Stream, error) {
	if err := p.requireOpen(op); err != nil {
		return nil, err
	}
	// Same check-before-allocate ordering as storeInline, and for the
	// same reason: a duplicate id here would otherwise orphan both the
	// tree-node extent and the data extent.
	if err := p.treeExists(op, id); err != nil {
		return nil, err
	}

	nodeOffset, nodeGranted, err := p.alloc(TreeNodeSize)
	if err != nil {
		return nil, err
	}

	dataOffset, dataGranted, err := p.alloc(logicalSize)
	if err != nil {
		return nil, err
	}

	n := &treeNode{
		uuid:   id,
		lnode:  offsetNone,
		rnode:  offsetNone,
		typ:    typ,
		extra:  slackByte(dataGranted - logicalSize),
		inline: encodeExternalPointer(dataOffset, logicalSize),
	}
	_ = nodeGranted // the node's own slack is never reclaimed: nodes are never freed, only tombstoned.
	if err := n.write(p.dev, nodeOffset); err != nil {
		return nil, err
	}
	if err := p.treeInsert(id, nodeOffset); err != nil {
		return nil, err
	}
	p.invalidate(id)

	return newStream(p.dev, dataOffset, logicalSize), nil
}

// storeExternal is the one-call convenience used by blob/string/list
// and by the file node itself: allocate, link, then fill. It is not
// atomic: if fill fails, the node stays linked with its extent
// incompletely written.
func (p *Parcel) storeExternal(op string, id uuid.UUID, typ ObjType, logicalSize uint64, fill func(*Stream) error) error {
	stream, err := p.allocExternalNode(op, id, typ, logicalSize)
	if err != nil {
		return err
	}
	if err := fill(stream); err != nil {
		return newErr(op, CodeWrite, err)
	}
	return nil
}

func writeAll(s *Stream, p []byte) error {
	for len(p) > 0 {
		n, err := s.Write(p)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		p = p[n:]
	}
	return nil
}

func readAll(s *Stream, p []byte) error {
	for len(p) > 0 {
		n, err := s.Read(p)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrUnexpectedEOF
		}
		p = p[n:]
	}
	return nil
}

func (p *Parcel) fetchExternal(op string, id uuid.UUID, want ObjType) (*Stream, uint64, error) {
	if err := p.requireOpen(op); err != nil {
		return nil, 0, err
	}
	_, node, err := p.lookupLive(op, id)
	if err != nil {
		return nil, 0, err
	}
	if node.typ != want {
		return nil, 0, newErr(op, CodeType, nil)
	}
	dataOffset, dataSize := decodeExternalPointer(node)
	return newStream(p.dev, dataOffset, dataSize), dataSize, nil
}

// StoreBlob stores an opaque byte slice under id, length-prefixed on
// disk per spec.md §3's tag-6 encoding.
func (p *Parcel) StoreBlob(id uuid.UUID, data []byte) error {
	logical := uint64(8 + len(data))
	return p.storeExternal("store.blob", id, TypeBlob, logical, func(s *Stream) error {
		var hdr [8]byte
		putBEU64(hdr[:], uint64(len(data)))
		if err := writeAll(s, hdr[:]); err != nil {
			return err
		}
		return writeAll(s, data)
	})
}

// FetchBlob fetches a previously stored blob. Per Open Question 2, this
// checks the node against TypeBlob (the original's fetchBlob checked
// the wrong tag).
func (p *Parcel) FetchBlob(id uuid.UUID) ([]byte, error) {
	stream, _, err := p.fetchExternal("fetch.blob", id, TypeBlob)
	if err != nil {
		return nil, err
	}
	var hdr [8]byte
	if err := readAll(stream, hdr[:]); err != nil {
		return nil, newErr("fetch.blob", CodeRead, err)
	}
	n := beU64(hdr[:])
	data := make([]byte, n)
	if err := readAll(stream, data); err != nil {
		return nil, newErr("fetch.blob", CodeRead, err)
	}
	return data, nil
}

// StoreString stores a UTF-8 string under id.
func (p *Parcel) StoreString(id uuid.UUID, s string) error {
	logical := uint64(8 + len(s))
	return p.storeExternal("store.string", id, TypeString, logical, func(stream *Stream) error {
		var hdr [8]byte
		putBEU64(hdr[:], uint64(len(s)))
		if err := writeAll(stream, hdr[:]); err != nil {
			return err
		}
		return writeAll(stream, []byte(s))
	})
}

// FetchString fetches a previously stored string.
func (p *Parcel) FetchString(id uuid.UUID) (string, error) {
	stream, _, err := p.fetchExternal("fetch.string", id, TypeString)
	if err != nil {
		return "", err
	}
	var hdr [8]byte
	if err := readAll(stream, hdr[:]); err != nil {
		return "", newErr("fetch.string", CodeRead, err)
	}
	n := beU64(hdr[:])
	data := make([]byte, n)
	if err := readAll(stream, data); err != nil {
		return "", newErr("fetch.string", CodeRead, err)
	}
	return string(data), nil
}

// StoreList stores an ordered list of UUIDs under id.
func (p *Parcel) StoreList(id uuid.UUID, items []uuid.UUID) error {
	logical := uint64(8 + 16*len(items))
	return p.storeExternal("store.list", id, TypeList, logical, func(stream *Stream) error {
		var hdr [8]byte
		putBEU64(hdr[:], uint64(len(items)))
		if err := writeAll(stream, hdr[:]); err != nil {
			return err
		}
		for _, it := range items {
			if err := writeAll(stream, it[:]); err != nil {
				return err
			}
		}
		return nil
	})
}

// FetchList fetches a previously stored list of UUIDs.
func (p *Parcel) FetchList(id uuid.UUID) ([]uuid.UUID, error) {
	stream, _, err := p.fetchExternal("fetch.list", id, TypeList)
	if err != nil {
		return nil, err
	}
	var hdr [8]byte
	if err := readAll(stream, hdr[:]); err != nil {
		return nil, newErr("fetch.list", CodeRead, err)
	}
	count := beU64(hdr[:])
	items := make([]uuid.UUID, count)
	for i := range items {
		if err := readAll(stream, items[i][:]); err != nil {
			return nil, newErr("fetch.list", CodeRead, err)
		}
	}
	return items, nil
}

func dlogDebugf(ctx context.Context, format string, args ...interface{}) {
	if ctx == nil {
		return
	}
	debugLogf(ctx, format, args...)
}
