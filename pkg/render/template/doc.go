// Package template holds the engine interface the HTML renderer draws its
// component templates through.
package template
