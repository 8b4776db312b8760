package remote

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/reflow-ui/reflow/internal/errors"
	"github.com/reflow-ui/reflow/pkg/metrics"
	"github.com/reflow-ui/reflow/pkg/renderer"
	"github.com/reflow-ui/reflow/pkg/vdom"
)

// OpKind identifies one tree mutation in a mutations frame.
type OpKind uint8

const (
	OpCreateElement  OpKind = 0x01 // id, tag
	OpCreateText     OpKind = 0x02 // id, text
	OpCreateAnchor   OpKind = 0x03 // id
	OpInsertBefore   OpKind = 0x04 // parent, node, anchor (0 = append)
	OpRemoveChild    OpKind = 0x05 // parent, node
	OpSetText        OpKind = 0x06 // node, text
	OpSetElemText    OpKind = 0x07 // node, text
	OpSetAttr        OpKind = 0x08 // node, name, value
	OpRemoveAttr     OpKind = 0x09 // node, name
	OpSetStyle       OpKind = 0x0A // node, count, name/value pairs
	OpSetField       OpKind = 0x0B // node, name, bool flag, value
	OpRemoveField    OpKind = 0x0C // node, name
	OpAddListener    OpKind = 0x0D // node, event
	OpRemoveListener OpKind = 0x0E // node, event
)

// String returns the op mnemonic, used as a metrics label.
func (op OpKind) String() string {
	switch op {
	case OpCreateElement:
		return "create_element"
	case OpCreateText:
		return "create_text"
	case OpCreateAnchor:
		return "create_anchor"
	case OpInsertBefore:
		return "insert_before"
	case OpRemoveChild:
		return "remove_child"
	case OpSetText:
		return "set_text"
	case OpSetElemText:
		return "set_element_text"
	case OpSetAttr:
		return "set_attr"
	case OpRemoveAttr:
		return "remove_attr"
	case OpSetStyle:
		return "set_style"
	case OpSetField:
		return "set_field"
	case OpRemoveField:
		return "remove_field"
	case OpAddListener:
		return "add_listener"
	case OpRemoveListener:
		return "remove_listener"
	default:
		return "unknown"
	}
}

// rootID is the client-side mount container's fixed node ID.
const rootID = 1

// node is one entry in the server-side mirror tree. It carries only
// what structural queries need; content lives on the client.
type node struct {
	id       uint64
	parent   *node
	children []*node
}

// Sink receives encoded frames. The websocket session implements it;
// tests substitute a buffer.
type Sink interface {
	WriteFrame(data []byte) error
}

// Host implements renderer.Host by mirroring tree structure locally and
// buffering every mutation as a binary op until Flush.
type Host struct {
	sink   Sink
	logger *slog.Logger
	met    *metrics.Metrics

	nextID uint64
	root   *node
	enc    *Encoder
	ops    int

	// offsets records the encoder position after each buffered op, so a
	// flush can split the batch into frames at op boundaries.
	offsets []int

	listeners map[uint64]map[string]func(any)
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) HostOption {
	return func(h *Host) {
		h.logger = l
	}
}

// WithMetrics attaches a collector set.
func WithMetrics(m *metrics.Metrics) HostOption {
	return func(h *Host) {
		h.met = m
	}
}

// NewHost creates a remote host writing frames to sink.
func NewHost(sink Sink, opts ...HostOption) *Host {
	h := &Host{
		sink:      sink,
		nextID:    rootID,
		root:      &node{id: rootID},
		enc:       NewEncoder(),
		listeners: make(map[uint64]map[string]func(any)),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = slog.Default().With("component", "remote")
	}
	return h
}

// Root returns the mount container node.
func (h *Host) Root() renderer.Node {
	return h.root
}

// PendingOps returns the number of buffered mutations.
func (h *Host) PendingOps() int {
	return h.ops
}

func (h *Host) alloc() *node {
	h.nextID++
	return &node{id: h.nextID}
}

func (h *Host) countOp(op OpKind) {
	h.ops++
	h.offsets = append(h.offsets, h.enc.Len())
	if h.met != nil {
		h.met.RemoteOpsTotal.WithLabelValues(op.String()).Inc()
	}
}

// CreateElement allocates a node ID and buffers a create op.
func (h *Host) CreateElement(tag string) renderer.Node {
	n := h.alloc()
	h.enc.PutByte(byte(OpCreateElement))
	h.enc.PutUvarint(n.id)
	h.enc.PutString(tag)
	h.countOp(OpCreateElement)
	return n
}

// CreateText allocates a text node.
func (h *Host) CreateText(text string) renderer.Node {
	n := h.alloc()
	h.enc.PutByte(byte(OpCreateText))
	h.enc.PutUvarint(n.id)
	h.enc.PutString(text)
	h.countOp(OpCreateText)
	return n
}

// CreateAnchor allocates a zero-width marker node.
func (h *Host) CreateAnchor() renderer.Node {
	n := h.alloc()
	h.enc.PutByte(byte(OpCreateAnchor))
	h.enc.PutUvarint(n.id)
	h.countOp(OpCreateAnchor)
	return n
}

// InsertBefore mirrors the structural change and buffers the op.
func (h *Host) InsertBefore(container, nd, anchor renderer.Node) {
	parent := container.(*node)
	n := nd.(*node)
	if n.parent != nil {
		detach(n)
	}
	n.parent = parent

	var anchorID uint64
	if anchor != nil {
		at := anchor.(*node)
		anchorID = at.id
		inserted := false
		for i, c := range parent.children {
			if c == at {
				parent.children = append(parent.children[:i], append([]*node{n}, parent.children[i:]...)...)
				inserted = true
				break
			}
		}
		if !inserted {
			parent.children = append(parent.children, n)
		}
	} else {
		parent.children = append(parent.children, n)
	}

	h.enc.PutByte(byte(OpInsertBefore))
	h.enc.PutUvarint(parent.id)
	h.enc.PutUvarint(n.id)
	h.enc.PutUvarint(anchorID)
	h.countOp(OpInsertBefore)
}

// RemoveChild detaches the mirror node, drops the subtree's listeners,
// and buffers the op.
func (h *Host) RemoveChild(parent, nd renderer.Node) {
	p := parent.(*node)
	n := nd.(*node)
	if n.parent != p {
		return
	}
	detach(n)
	h.forget(n)

	h.enc.PutByte(byte(OpRemoveChild))
	h.enc.PutUvarint(p.id)
	h.enc.PutUvarint(n.id)
	h.countOp(OpRemoveChild)
}

func detach(n *node) {
	p := n.parent
	if p == nil {
		return
	}
	for i, c := range p.children {
		if c == n {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
	n.parent = nil
}

// forget drops local state for a removed subtree.
func (h *Host) forget(n *node) {
	delete(h.listeners, n.id)
	for _, c := range n.children {
		h.forget(c)
	}
}

// SetText buffers a text-content op.
func (h *Host) SetText(nd renderer.Node, text string) {
	h.enc.PutByte(byte(OpSetText))
	h.enc.PutUvarint(nd.(*node).id)
	h.enc.PutString(text)
	h.countOp(OpSetText)
}

// SetElementText replaces an element's children with one run of text.
// The mirror children detach; the client does the equivalent.
func (h *Host) SetElementText(el renderer.Node, text string) {
	n := el.(*node)
	for _, c := range n.children {
		c.parent = nil
		h.forget(c)
	}
	n.children = nil

	h.enc.PutByte(byte(OpSetElemText))
	h.enc.PutUvarint(n.id)
	h.enc.PutString(text)
	h.countOp(OpSetElemText)
}

// Parent answers from the mirror tree.
func (h *Host) Parent(nd renderer.Node) renderer.Node {
	p := nd.(*node).parent
	if p == nil {
		return nil
	}
	return p
}

// NextSibling answers from the mirror tree.
func (h *Host) NextSibling(nd renderer.Node) renderer.Node {
	n := nd.(*node)
	p := n.parent
	if p == nil {
		return nil
	}
	for i, c := range p.children {
		if c == n && i+1 < len(p.children) {
			return p.children[i+1]
		}
	}
	return nil
}

// PatchProps applies a prop diff as mutation ops: class stringifies,
// style ships as a full map (the client clears stale keys), handler
// keys register locally and subscribe on the client, direct fields and
// generic attributes set or remove by value.
func (h *Host) PatchProps(el renderer.Node, oldProps, newProps vdom.Props) {
	n := el.(*node)
	for k, v := range newProps {
		h.applyProp(n, k, v)
	}
	for k := range oldProps {
		if k == "key" {
			continue
		}
		if _, still := newProps[k]; !still {
			h.removeProp(n, k)
		}
	}
}

func (h *Host) applyProp(n *node, key string, val any) {
	switch {
	case key == "key":

	case key == "class":
		h.setAttr(n, "class", classString(val))

	case key == "style":
		// The client replaces its style map wholesale, clearing stale keys.
		style := styleMap(val)
		h.enc.PutByte(byte(OpSetStyle))
		h.enc.PutUvarint(n.id)
		h.enc.PutUvarint(uint64(len(style)))
		for k, v := range style {
			h.enc.PutString(k)
			h.enc.PutString(v)
		}
		h.countOp(OpSetStyle)

	case isEventKey(key):
		event := strings.ToLower(key[2:])
		reg := h.listeners[n.id]
		if reg == nil {
			reg = make(map[string]func(any))
			h.listeners[n.id] = reg
		}
		_, had := reg[event]
		delete(reg, event)
		switch fn := val.(type) {
		case func(any):
			reg[event] = fn
		case func():
			reg[event] = func(any) { fn() }
		}
		if _, have := reg[event]; have && !had {
			h.enc.PutByte(byte(OpAddListener))
			h.enc.PutUvarint(n.id)
			h.enc.PutString(event)
			h.countOp(OpAddListener)
		}
		if _, have := reg[event]; !have && had {
			h.enc.PutByte(byte(OpRemoveListener))
			h.enc.PutUvarint(n.id)
			h.enc.PutString(event)
			h.countOp(OpRemoveListener)
		}

	case isDirectField(key):
		isBool := directFields[key]
		if s, ok := val.(string); ok && s == "" && isBool {
			val = true
		}
		h.enc.PutByte(byte(OpSetField))
		h.enc.PutUvarint(n.id)
		h.enc.PutString(key)
		if b, ok := val.(bool); ok {
			h.enc.PutBool(true)
			h.enc.PutBool(b)
		} else {
			h.enc.PutBool(false)
			h.enc.PutString(fmt.Sprintf("%v", val))
		}
		h.countOp(OpSetField)

	default:
		if val == nil || val == false {
			h.removeAttr(n, key)
			return
		}
		h.setAttr(n, key, fmt.Sprintf("%v", val))
	}
}

func (h *Host) removeProp(n *node, key string) {
	switch {
	case key == "class":
		h.removeAttr(n, "class")
	case key == "style":
		h.enc.PutByte(byte(OpSetStyle))
		h.enc.PutUvarint(n.id)
		h.enc.PutUvarint(0)
		h.countOp(OpSetStyle)
	case isEventKey(key):
		event := strings.ToLower(key[2:])
		if reg := h.listeners[n.id]; reg != nil {
			if _, had := reg[event]; had {
				delete(reg, event)
				h.enc.PutByte(byte(OpRemoveListener))
				h.enc.PutUvarint(n.id)
				h.enc.PutString(event)
				h.countOp(OpRemoveListener)
			}
		}
	case isDirectField(key):
		h.enc.PutByte(byte(OpRemoveField))
		h.enc.PutUvarint(n.id)
		h.enc.PutString(key)
		h.countOp(OpRemoveField)
	default:
		h.removeAttr(n, key)
	}
}

func (h *Host) setAttr(n *node, name, value string) {
	h.enc.PutByte(byte(OpSetAttr))
	h.enc.PutUvarint(n.id)
	h.enc.PutString(name)
	h.enc.PutString(value)
	h.countOp(OpSetAttr)
}

func (h *Host) removeAttr(n *node, name string) {
	h.enc.PutByte(byte(OpRemoveAttr))
	h.enc.PutUvarint(n.id)
	h.enc.PutString(name)
	h.countOp(OpRemoveAttr)
}

// Flush ships the buffered ops as mutations frames, splitting at op
// boundaries when the batch exceeds one frame's payload limit. Only the
// last frame of the batch carries FlagFinal. With nothing buffered it
// writes nothing.
func (h *Host) Flush() error {
	if h.ops == 0 {
		return nil
	}
	payload := h.enc.Bytes()

	var chunks [][]byte
	start := 0
	for i := 0; i < len(h.offsets); {
		if h.offsets[i]-start > MaxPayloadSize {
			// A single op larger than one frame cannot ship at all; drop
			// the batch so later flushes are not wedged behind it.
			h.reset()
			return errors.New("P001").WithDetail("mutation op exceeds frame payload limit")
		}
		j := i
		for j+1 < len(h.offsets) && h.offsets[j+1]-start <= MaxPayloadSize {
			j++
		}
		chunks = append(chunks, payload[start:h.offsets[j]])
		start = h.offsets[j]
		i = j + 1
	}

	total := 0
	for i, chunk := range chunks {
		frame := &Frame{Type: FrameMutations, Payload: chunk}
		if i == len(chunks)-1 {
			frame.Flags = FlagFinal
		}
		data, err := frame.Encode()
		if err != nil {
			return err
		}
		if err := h.sink.WriteFrame(data); err != nil {
			return errors.FromError(err, "P001")
		}
		total += len(data)
	}
	if h.met != nil {
		h.met.RemoteOpBytes.Add(float64(total))
	}
	h.logger.Debug("flushed mutations", "ops", h.ops, "frames", len(chunks), "bytes", total)
	h.reset()
	return nil
}

func (h *Host) reset() {
	h.enc.Reset()
	h.ops = 0
	h.offsets = h.offsets[:0]
}

// HandleEventFrame decodes a client event payload (node ID, event name,
// string value) and dispatches it to the registered handler. Events for
// unknown nodes or events drop silently.
func (h *Host) HandleEventFrame(payload []byte) error {
	d := NewDecoder(payload)
	id, err := d.ReadUvarint()
	if err != nil {
		return err
	}
	event, err := d.ReadString()
	if err != nil {
		return err
	}
	value, err := d.ReadString()
	if err != nil {
		return err
	}

	reg := h.listeners[id]
	if reg == nil {
		return nil
	}
	fn, ok := reg[event]
	if !ok {
		return nil
	}
	fn(value)
	return nil
}

// The prop classification rules below mirror pkg/hostmem; both sides of
// the adapter boundary must agree on them.

var directFields = map[string]bool{
	"value":    false,
	"checked":  true,
	"disabled": true,
	"selected": true,
	"multiple": true,
	"muted":    true,
	"readOnly": true,
}

func isDirectField(key string) bool {
	_, ok := directFields[key]
	return ok
}

func isEventKey(key string) bool {
	if len(key) <= 2 || !strings.HasPrefix(key, "on") {
		return false
	}
	c := key[2]
	return c < 'a' || c > 'z'
}

func classString(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case []string:
		return strings.Join(v, " ")
	case []any:
		parts := make([]string, 0, len(v))
		for _, p := range v {
			parts = append(parts, fmt.Sprintf("%v", p))
		}
		return strings.Join(parts, " ")
	default:
		return fmt.Sprintf("%v", v)
	}
}

func styleMap(val any) map[string]string {
	out := make(map[string]string)
	switch v := val.(type) {
	case map[string]string:
		for k, s := range v {
			out[k] = s
		}
	case map[string]any:
		for k, s := range v {
			out[k] = fmt.Sprintf("%v", s)
		}
	}
	return out
}
