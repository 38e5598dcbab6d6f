// Package notebook renders an assembled document as a Jupyter notebook
// (nbformat 4) JSON file, one cell per block.
package notebook
