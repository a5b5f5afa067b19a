package playback

// State is a snapshot of the control surface for the presentation layer.
type State struct {
	ActiveSong *Interval `json:"activeSong,omitempty"`
	NextSong   *Interval `json:"nextSong,omitempty"`

	SongsInVideo       []Interval `json:"songsInVideo"`
	AllSongsHaveEnd    bool       `json:"allSongsHaveEnd"`
	SongCumulativeMap  []Segment  `json:"songCumulativeMap"`
	TotalSongsDuration float64    `json:"totalSongsDuration"`
	VideoDuration      float64    `json:"videoDuration"`
	VideoStartTime     float64    `json:"videoStartTime"`
	DisplayDuration    float64    `json:"displayDuration"`

	CurrentTimeText string `json:"currentTimeText"`
	DurationText    string `json:"durationText"`

	Playing       bool    `json:"playing"`
	SeekState     string  `json:"seekState"`
	IsSeeking     bool    `json:"isSeeking"`
	TempSeekValue float64 `json:"tempSeekValue"`

	TempVolumeValue  float64 `json:"tempVolumeValue"`
	IsMuted          bool    `json:"isMuted"`
	ShowVolumeSlider bool    `json:"showVolumeSlider"`

	HoveredChapter *Hover `json:"hoveredChapter"`
}

// State returns the current control surface values.
func (c *Controller) State() State {
	tel := c.player.Telemetry()

	c.mu.Lock()
	defer c.mu.Unlock()

	tl := c.timeline(tel)
	display := tl.DisplayDuration()
	st := State{
		SongsInVideo:       append([]Interval(nil), c.ix.Intervals...),
		AllSongsHaveEnd:    tl.Virtual(),
		SongCumulativeMap:  append([]Segment(nil), c.ix.Segments...),
		TotalSongsDuration: c.ix.TotalSongsDuration,
		VideoDuration:      tl.MediaEnd(),
		VideoStartTime:     tl.MediaStart(),
		DisplayDuration:    display,
		CurrentTimeText:    FormatTime(c.seek.value, display),
		DurationText:       FormatTime(display, display),
		Playing:            c.playing,
		SeekState:          c.seek.state.String(),
		IsSeeking:          c.seek.dragging(),
		TempSeekValue:      c.seek.value,
		TempVolumeValue:    c.vol.value,
		IsMuted:            c.vol.muted,
		ShowVolumeSlider:   c.vol.showSlider,
	}
	if c.active != nil {
		a := *c.active
		st.ActiveSong = &a
	}
	if c.next != nil {
		n := *c.next
		st.NextSong = &n
	}
	if c.hover != nil {
		h := *c.hover
		st.HoveredChapter = &h
	}
	return st
}
