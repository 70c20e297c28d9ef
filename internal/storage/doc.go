// Package storage keeps a journal of the notifications the bot sends
// (or fails to send).
//
// The journal is an audit trail. At startup the newest entry is logged;
// nothing in it is read back into the poll state.
package storage
