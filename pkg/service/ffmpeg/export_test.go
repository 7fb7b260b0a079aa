package ffmpeg

func (t *Transcoder) Args() []string {
	return t.args()
}
