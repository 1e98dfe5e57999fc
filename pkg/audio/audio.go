// Package audio provides helpers for 16-bit PCM audio: WAV container
// encoding/decoding, float32 sample conversion for recognition engines,
// channel down-mixing, and sample-rate conversion.
//
// All byte-slice PCM is 16-bit signed little-endian. Browser capture
// typically arrives at 48 kHz while recognition engines expect 16 kHz mono;
// [ResampleMono16] and [StereoToMono] bridge that gap.
package audio

// BitsPerSample is the fixed sample width for all PCM handled by this
// package.
const BitsPerSample = 16
