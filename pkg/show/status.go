package show

// StatusSnapshot is the read-only playback state published after every
// processed frame. Consumers (CLI, web dashboard) must treat it as immutable.
type StatusSnapshot struct {
	Status      string  `json:"status"`
	FolderIndex int     `json:"folderIndex"`
	FileIndex   int     `json:"fileIndex"`
	Source      string  `json:"source,omitempty"`
	Playmode    string  `json:"playmode"`
	Volume      int     `json:"volume"`
	Brightness  int     `json:"brightness"`
	Contrast    float64 `json:"contrast"`
	Saturation  float64 `json:"saturation"`
	Gamma       float64 `json:"gamma"`
	Speed       float64 `json:"speed"`
	Rotation    int     `json:"rotation"`
	Zoom        float64 `json:"zoom"`
	PanX        float64 `json:"panX"`
	PanY        float64 `json:"panY"`
	LastError   string  `json:"lastError,omitempty"`
	Frames      uint64  `json:"frames"`
	TS          int64   `json:"ts"`
}
