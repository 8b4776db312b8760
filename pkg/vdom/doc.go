// Package vdom defines reflow's virtual node model: the tagged-union
// description of a renderable tree (element, text, fragment, or component
// nodes) with a shape bitmask classifying node kind and children kind.
//
// The shape is computed once at creation and never recomputed; it fully
// determines which reconciliation path a node takes in pkg/renderer.
package vdom
