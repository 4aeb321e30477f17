// Package browser drives a headless Chrome session through chromedp. It is
// the thin collaborator the core subsystems stay ignorant of: discovery sees
// it as a Prober, the worker runner sees it as a Renderer.
//
// One Session owns one browser process. The discovery phase holds a single
// shared session; the execution phase gives every worker process its own,
// which is the fault boundary that lets a browser crash take down only its
// worker.
package browser
