// Package sampling generates negative (corrupted) triples for contrastive
// knowledge graph embedding training.
//
// A negative is produced from a positive (h, r, t) by replacing either the
// head or the tail with another entity id; the relation is never touched and
// the replacement never equals the id it replaces. Three schemes are
// provided:
//
//	Basic      head or tail with probability 0.5 each, uniform replacement
//	Bernoulli  head with probability tph/(tph+hpt) of the relation
//	Degree     side as Basic, replacement drawn by entity degree^0.75
//
// Samplers are built once from the training triples, own a seeded random
// source and are then called once per mini-batch:
//
//	s, err := sampling.NewBernoulli(kg, sampling.WithNumNegsPerPos(4), sampling.WithSeed(42))
//	negatives, mask := s.Sample(batch)
//
// negatives[i*k+j] is the j-th corruption of batch[i]. When a Filterer is
// configured, mask[i] reports that negatives[i] is a known true triple.
//
// A Sampler is not safe for concurrent use.
package sampling
