// Package parser extracts posts and pagination from board listing pages.
//
// A listing page holds a ul#post-list-posts whose li entries each carry an
// a.directlink (the standard image) and an a.thumb (the post detail page).
// When quality lookup is enabled the detail page is fetched and its a#png
// link becomes the post's quality variant.
package parser
