// Package remote streams host-tree mutations to a thin client over a
// websocket. It implements renderer.Host against a server-side mirror
// tree: structural queries answer locally, every mutation is buffered
// as a binary op and shipped in one frame per flush. Client events come
// back as frames and dispatch to the handlers registered through props.
package remote
