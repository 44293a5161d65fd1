package blit

// A Target names a render target. Temporaries are referred to by the name they
// were allocated under, and stages can sample any live target by name, the
// way a shader reads a global texture property.
type Target string

// CameraTarget is the color buffer the host renders into; it is bound by the
// host for the duration of a frame and is never a temporary.
const CameraTarget Target = "_CameraColorTarget"

func (t Target) String() string { return string(t) }
