package main

// placeholder marks header fields a human still has to fill in.
const placeholder = "TODO"

// PostHeader is the front-matter written at the top of an imported post
type PostHeader struct {
	Title    string
	Slug     string
	Date     string
	Author   string
	Category string
	Tags     []string
	Summary  string
}

// ImportStatus represents the outcome status of importing an article
type ImportStatus string

const (
	StatusWritten ImportStatus = "written"
	StatusSkipped ImportStatus = "skipped"
)

// ImportResult tracks the outcome of one import
type ImportResult struct {
	Slug     string
	Status   ImportStatus
	Filename string
}
