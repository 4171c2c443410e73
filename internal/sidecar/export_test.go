package sidecar

const MaxLineBytes = maxLineBytes
