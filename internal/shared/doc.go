// Package shared holds helpers used by more than one package. Its testutil
// subpackage provides the dataset fixtures and the log capture handler the
// package tests share.
package shared
