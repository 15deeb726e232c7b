package model

// FFProbeOutput maps the subset of `ffprobe -show_streams` JSON the pipeline
// inspects when deciding whether an upload is already canonical PCM.
type FFProbeOutput struct {
	Streams []struct {
		CodecType     string `json:"codec_type"`
		CodecName     string `json:"codec_name"`
		SampleRate    int    `json:"sample_rate,string"`
		Channels      int    `json:"channels"`
		BitsPerSample int    `json:"bits_per_sample"`
	} `json:"streams"`
}
