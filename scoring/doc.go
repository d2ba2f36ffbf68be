// Package scoring implements the rule-based demo models: a lexicon mood
// analyzer and a weighted pass/fail predictor.
package scoring
