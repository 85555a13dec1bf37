// Package router binds inline previews to the active document.
//
// On activation the Router scans the document for comment blocks, opens
// one widget.Preview per block and forwards every buffer change
// notification to each preview in turn. The previews keep their own state;
// the router only owns the set of open widgets and replaces it when another
// document becomes active, either by a direct Activate call or through the
// document.active event.
package router
