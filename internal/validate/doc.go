// Package validate scores platform drafts across five quality dimensions
// (hook, relevance, readability, seo, originality) and applies an accept
// policy with a mean threshold and a per-dimension floor. Decisions are
// per draft; a rejected draft is excluded downstream without failing the
// item.
package validate
