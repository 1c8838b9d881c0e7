//go:build debug

package loader

const debugSuffix = "_d"
