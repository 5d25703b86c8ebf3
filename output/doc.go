// Package output writes extracted figures to disk.
//
// Each figure becomes a PNG whose name is derived from its caption label:
// "Figure3.png" for localized and reconstructed regions, and
// "figure3_ablation_results.png" or "image_page4_obj17.png" for regions
// found by the raw image heuristic. Name collisions get "_2", "_3", ...
// suffixes. A metadata file, extraction_metadata.json, lists every figure
// with its provenance and score.
package output
