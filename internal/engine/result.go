package engine

type Result struct {
	ID      string `json:"id"`
	Archive string `json:"archive"`
	Target  string `json:"target"`
	Format  string `json:"format"`
	OK      bool   `json:"ok"`
}
