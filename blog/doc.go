// Package blog lists and renders the markdown posts of the site.
package blog
