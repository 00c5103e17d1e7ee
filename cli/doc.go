// Package cli implements the n8nmcp command-line interface.
package cli
