// Package voice implements the local conversation pipeline: speech in,
// language model in the middle, speech out.
//
// The Engine owns one conversation. Audio frames arrive via SendAudio and
// pass through voice activity detection; when an utterance ends it is
// transcribed, run through the language model with the registered tools,
// and the reply is synthesized and handed to the audio output callback.
// Say short-circuits the input half for server-initiated speech such as
// startup announcements and wake greetings.
//
// Every stage runs against swappable providers (stt.Provider,
// inference.Provider, tts.Provider), so tests drive the engine with mocks
// and deployments pick whatever local servers they run.
package voice
