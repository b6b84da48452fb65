// Package agent provides the review micro-agents and their shared plumbing.
//
// Each agent enforces exactly one natural-language code policy: a single
// review question (for example "does this change introduce hard-coded
// credentials?") backed by background prose that pins down what counts as a
// violation. Agents are pure functions of the changed files; they hold no
// state between runs and are safe to invoke concurrently.
//
// # Architecture
//
// Every built-in agent has two analysis layers:
//
//  1. A model layer that puts the policy question to the configured LLM once
//     per changed file and parses the JSON reply into domain.Finding values.
//  2. A heuristic layer of compiled patterns that runs when no model client
//     is configured, or as a per-file fallback when a model call fails.
//
// The split means a missing API key or a flaky provider degrades analysis
// depth instead of producing an empty review.
//
// # Agent Interface
//
// Example usage:
//
//	a, err := agent.New("hardcoded-credentials", client)
//	if err != nil {
//	    log.Fatal().Err(err).Send()
//	}
//
//	findings, err := a.Analyze(ctx, pr.Files)
//	if err != nil {
//	    // context cancellation or an unrecoverable analysis failure
//	}
//
// Findings returned by Analyze are fully normalized: agent ID stamped,
// category defaulted from the policy, confidence clamped to [0,1]. Malformed
// model output is dropped with a warning inside the parse layer and never
// escapes the package.
//
// # Built-in Agents
//
// hardcoded-credentials: assignment patterns plus the gitleaks ruleset
// pii-exposure: direct PII values, risky variable names, logging exposure
// github-actions-security: workflow misconfiguration and injection risks
//
// Additional agents can be added by registering a Policy and a heuristic in
// the factory; nothing outside this package distinguishes built-ins from
// custom agents.
package agent
